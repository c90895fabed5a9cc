package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pophits/internal/server"
	"github.com/desertthunder/pophits/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web pages until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = port
	}

	var spotify web.SpotifyClient
	if r.spotify != nil {
		spotify = r.spotify
	}
	app, err := web.New(web.Options{
		API:            r.api,
		Spotify:        spotify,
		Auth:           r.manager,
		Logger:         r.logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to build web app: %w", err)
	}

	r.watchSession(ctx)

	r.writePlain("→ Serving PopHits at http://%s (Ctrl+C to stop)\n", cfg.Addr())
	return server.New(cfg.Addr(), app.Handler(), r.logger).Run(ctx)
}
