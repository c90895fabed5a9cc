package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/urfave/cli/v3"
)

// RawGet makes a direct GET request to the PopHits API.
func (r *Runner) RawGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)
	resp, err := r.api.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// RawPost makes a direct POST request with a JSON body.
func (r *Runner) RawPost(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	data := cmd.String("data")
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)
	resp, err := r.api.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if err := r.writeRaw(resp.Body); err != nil {
		return err
	}
	return r.writePlain("\n")
}
