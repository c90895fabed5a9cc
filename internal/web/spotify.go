package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/google/uuid"
)

const stateCookie = "pophits_spotify_state"

type exportView struct {
	State      ViewState[*tasks.ExportResult]
	PlaylistID string
	Partial    bool
}

// exportPlaylist creates a Spotify playlist from the generated songs posted back by the playlist page.
func (a *App) exportPlaylist(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderError(w, r, errors.Join(shared.ErrInvalidInput, err))
		return
	}
	if a.spotify == nil {
		a.renderError(w, r, fmt.Errorf("%w: spotify export needs spotify.client_id", shared.ErrMissingConfig))
		return
	}
	if _, ok := a.auth.Session().SpotifyToken(); !ok {
		http.Redirect(w, r, "/spotify/login", http.StatusSeeOther)
		return
	}

	links := r.PostForm["spotify_url"]
	songs := make([]models.Song, 0, len(links))
	for _, link := range links {
		songs = append(songs, models.Song{SpotifyURL: link})
	}

	req := tasks.ExportRequest{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: "Generated by PopHits",
		Songs:       songs,
	}
	result, err := tasks.NewSpotifyExporter(a.spotify).Run(r.Context(), req, nil)

	view := exportView{State: Resolve(result, err, nil)}
	var partial *tasks.PartialExportError
	if errors.As(err, &partial) {
		view.Partial = true
		view.PlaylistID = partial.PlaylistID
	}
	if err != nil {
		a.logger.Error("spotify export failed", "name", req.Name, "error", err)
	} else {
		a.logger.Info("exported playlist", "name", req.Name, "tracks", result.Added, "skipped", result.Skipped)
	}
	a.render(w, r, view.State.HTTPStatus(), "export.html", "Spotify Export", view)
}

// spotifyLogin starts the implicit grant, remembering the state in a short-lived cookie.
func (a *App) spotifyLogin(w http.ResponseWriter, r *http.Request) {
	if a.spotify == nil {
		a.renderError(w, r, fmt.Errorf("%w: spotify sign-in needs spotify.client_id", shared.ErrMissingConfig))
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/spotify",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.spotify.AuthURL(state), http.StatusFound)
}

// spotifyToken receives the fragment forwarded by the callback page.
func (a *App) spotifyToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		a.renderError(w, r, errors.Join(shared.ErrInvalidInput, shared.ErrInvalidState))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/spotify", MaxAge: -1})

	token, state, err := services.ParseFragment(r.URL.RawQuery)
	if err != nil {
		a.renderError(w, r, errors.Join(shared.ErrInvalidInput, err))
		return
	}
	if state != cookie.Value {
		a.renderError(w, r, errors.Join(shared.ErrInvalidInput, shared.ErrInvalidState))
		return
	}

	if err := a.auth.ConnectSpotify(token); err != nil {
		a.renderError(w, r, err)
		return
	}
	a.logger.Info("spotify connected")
	http.Redirect(w, r, "/playlist-generator", http.StatusSeeOther)
}
