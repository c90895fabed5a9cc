package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/server"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// oauthTimeout bounds how long the CLI waits for the browser redirect.
const oauthTimeout = 2 * time.Minute

// SpotifyLogin connects Spotify through the implicit grant.
//
// Starts a local HTTP server for the redirect, opens the browser for user authorization and stores the token
// forwarded by the callback page.
func (r *Runner) SpotifyLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}
	if err := r.manager.ConnectSpotify(token); err != nil {
		return err
	}

	r.writePlainln("✓ Spotify connected")
	if !token.Expiry.IsZero() {
		r.writePlain("✓ Token valid until %s\n", token.Expiry.Local().Format(time.Kitchen))
	}
	return nil
}

// SpotifyToken stores the token from a redirect URL pasted by hand, for machines where the callback server
// cannot be reached.
func (r *Runner) SpotifyToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	token, _, err := services.ParseFragment(cmd.StringArg("redirect-url"))
	if err != nil {
		return err
	}
	if err := r.manager.ConnectSpotify(token); err != nil {
		return err
	}
	r.logger.Info("stored pasted spotify token", "expires", token.Expiry)
	return r.writePlain("✓ Spotify connected\n")
}

// SpotifyStatus reports whether an unexpired Spotify token is stored.
func (r *Runner) SpotifyStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	token, ok := r.manager.Session().SpotifyToken()

	if cmd.Bool("json") {
		status := map[string]any{"configured": r.spotify != nil, "connected": ok}
		if ok && !token.Expiry.IsZero() {
			status["expires_at"] = token.Expiry
		}
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if r.spotify == nil {
		r.writePlain("⚠ spotify.client_id is not set; export is disabled\n")
	}
	if !ok {
		return r.writePlain("Spotify: ✗ not connected (run 'pophits spotify login')\n")
	}
	if token.Expiry.IsZero() {
		return r.writePlain("Spotify: ✓ connected\n")
	}
	return r.writePlain("Spotify: ✓ connected, expires in %s\n", time.Until(token.Expiry).Round(time.Minute))
}

// SpotifyLogout forgets the stored Spotify token.
func (r *Runner) SpotifyLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	r.manager.Session().ClearSpotify()
	return r.writePlain("✓ Spotify disconnected\n")
}

// SpotifyExport creates a Spotify playlist from the given song slugs or the user's bookmarks.
func (r *Runner) SpotifyExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	var songs []models.Song
	if cmd.Bool("bookmarks") {
		if err := r.requireSignIn(); err != nil {
			return err
		}
		bookmarked, err := r.api.BookmarkedSongs(ctx)
		if err != nil {
			return err
		}
		songs = bookmarked
	}

	for _, slug := range cmd.Args().Slice() {
		song, err := r.api.SongBySlug(ctx, strings.TrimSpace(slug))
		if err != nil {
			return err
		}
		songs = append(songs, *song)
	}

	if len(songs) == 0 {
		return fmt.Errorf("%w: pass song slugs or --bookmarks", shared.ErrMissingArgument)
	}

	return r.exportToSpotify(ctx, tasks.ExportRequest{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      cmd.Bool("public"),
		Songs:       songs,
	})
}

func (r *Runner) requireSpotify() error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: set spotify.client_id in %s", shared.ErrMissingConfig, r.configName())
	}
	return nil
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// doOAuth executes the implicit grant with a local HTTP server receiving the redirect.
func (r *Runner) doOAuth(ctx context.Context, openBrowser bool) (*oauth2.Token, error) {
	state := uuid.NewString()
	authURL := r.spotify.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger))
	router.Handler(oauthHandler)

	srvCtx, stop := context.WithCancel(ctx)
	defer stop()

	srv := server.New(r.config.Server.Addr(), router, r.logger)
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting Spotify callback server at %v", srv.Addr())
		serverErrors <- srv.Run(srvCtx)
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for Spotify sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", oauthTimeout)

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = fmt.Errorf("callback server stopped")
		}
		return nil, err
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, oauthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
