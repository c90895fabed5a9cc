package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in, prompting for any credential left off the command line.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	creds, err := r.credentials(cmd, false)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", creds.Email)
	if err := r.manager.Login(ctx, creds.Email, creds.Password); err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", r.manager.Session().Username())
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	creds, err := r.credentials(cmd, true)
	if err != nil {
		return err
	}

	r.logger.Info("registering", "username", creds.Username)
	if err := r.manager.Register(ctx, creds); err != nil {
		return err
	}
	return r.writePlain("✓ Account created, signed in as %s\n", creds.Username)
}

func (r *Runner) credentials(cmd *cli.Command, register bool) (models.Credentials, error) {
	creds := models.Credentials{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	if register {
		creds.Username = strings.TrimSpace(cmd.String("username"))
	}

	if creds.Validate(register) != nil {
		if err := r.prompter.Credentials(&creds, register); err != nil {
			return creds, err
		}
		creds.Email = strings.TrimSpace(creds.Email)
		creds.Username = strings.TrimSpace(creds.Username)
	}

	if err := creds.Validate(register); err != nil {
		return creds, fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}
	return creds, nil
}

// AuthImport signs in with the token found in a request copied from the browser's network panel.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
	} else {
		req, err = shared.ParseCurlCommand([]byte(curlCmd))
	}
	if err != nil {
		return err
	}

	token, ok := req.AuthToken()
	if !ok {
		return fmt.Errorf("%w: no \"Authorization: Token ...\" header in the cURL command", shared.ErrInvalidInput)
	}

	username := strings.TrimSpace(cmd.String("username"))
	r.manager.Session().Set(token, username)

	if err := r.manager.Identify(ctx); err != nil {
		r.manager.Session().Clear()
		return fmt.Errorf("%w: imported token was rejected: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Signed in as %s\n", r.manager.Session().Username())
}

// AuthLogout signs out. The local session is cleared even when the server call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if !r.manager.Session().IsAuthenticated() {
		return r.writePlain("Not signed in.\n")
	}

	if err := r.manager.Logout(ctx); err != nil {
		r.writePlain("⚠ Server sign-out failed: %v\n", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the stored session without calling the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	s := r.manager.Session()
	_, spotify := s.SpotifyToken()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"authenticated":     s.IsAuthenticated(),
			"username":          s.Username(),
			"spotify_connected": spotify,
		}, cmd.Bool("pretty"))
	}

	if s.IsAuthenticated() {
		r.writePlain("PopHits: ✓ signed in as %s\n", s.Username())
	} else {
		r.writePlain("PopHits: ✗ not signed in\n")
	}
	if spotify {
		r.writePlain("Spotify: ✓ connected\n")
	} else {
		r.writePlain("Spotify: ✗ not connected\n")
	}
	return nil
}

// AuthProfile shows the signed-in user's profile and rating history.
// With --username, --email or --password it updates the account instead.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}

	update := models.ProfileUpdate{
		Username: strings.TrimSpace(cmd.String("username")),
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	if update != (models.ProfileUpdate{}) {
		return r.updateProfile(ctx, update)
	}

	profile, err := r.api.Profile(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.manager.Session().Clear()
			return fmt.Errorf("%w: session expired, sign in again", err)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(profile.User.Username)
	r.writePlain("Email:   %s\n", profile.User.Email)
	r.writePlain("Ratings: %d\n", len(profile.RatingHistory))

	for _, h := range profile.RatingHistory {
		r.writePlain("  %2d/10  %s - %s (%s)\n", h.Score, h.SongArtist, h.SongTitle, formatter.Ago(h.Date.Time))
	}
	return nil
}

func (r *Runner) updateProfile(ctx context.Context, update models.ProfileUpdate) error {
	if err := r.api.UpdateProfile(ctx, update); err != nil {
		return err
	}
	if update.Username != "" {
		r.manager.Session().SetUser(r.manager.Session().UserID(), update.Username)
	}

	var changed []string
	if update.Username != "" {
		changed = append(changed, "username")
	}
	if update.Email != "" {
		changed = append(changed, "email")
	}
	if update.Password != "" {
		changed = append(changed, "password")
	}
	r.logger.Info("profile updated", "fields", changed)
	return r.writePlain("✓ Updated %s\n", strings.Join(changed, ", "))
}

// AuthResetPassword asks PopHits to email a reset link. It works signed out.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	email := strings.TrimSpace(cmd.String("email"))
	if err := r.api.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	return r.writePlain("✓ If %s has an account, a reset link is on its way\n", email)
}

// AuthConfirmReset sets a new password from the uid and token in a reset link.
func (r *Runner) AuthConfirmReset(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	uid, token := strings.TrimSpace(cmd.String("uid")), strings.TrimSpace(cmd.String("token"))
	if err := r.api.ConfirmPasswordReset(ctx, uid, token, cmd.String("password")); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed, sign in with 'pophits auth login'\n")
}
