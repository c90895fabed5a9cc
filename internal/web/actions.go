package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
)

// requireAuth sends anonymous visitors to the login page, returning them afterwards.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.auth.Session().IsAuthenticated() {
			target := r.URL.RequestURI()
			if r.Method != http.MethodGet {
				target = safeNext(r.FormValue("next"))
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// backToSong redirects to the song page named by the form's slug, or the site root.
func backToSong(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/songs/"+url.PathEscape(slug), http.StatusSeeOther)
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", shared.ErrInvalidArgument, name, r.PathValue(name))
	}
	return id, nil
}

// rate submits the clicked score. Clicking the score already held clears the rating.
func (a *App) rate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	clicked, err := strconv.Atoi(r.FormValue("score"))
	if err != nil {
		a.renderError(w, r, fmt.Errorf("%w: score %q", shared.ErrInvalidInput, r.FormValue("score")))
		return
	}
	current, _ := strconv.Atoi(r.FormValue("current"))

	score := services.ToggleScore(current, clicked)
	if score == services.ClearScore {
		err = a.api.ClearRating(r.Context(), id)
	} else {
		err = a.api.RateSong(r.Context(), id, score)
	}
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	backToSong(w, r)
}

func (a *App) addComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	if _, err := a.api.AddComment(r.Context(), id, r.FormValue("text")); err != nil {
		a.renderError(w, r, err)
		return
	}
	backToSong(w, r)
}

func (a *App) editComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	cid, err := pathID(r, "cid")
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	if _, err := a.api.EditComment(r.Context(), id, cid, r.FormValue("text")); err != nil {
		a.renderError(w, r, err)
		return
	}
	backToSong(w, r)
}

func (a *App) deleteComment(w http.ResponseWriter, r *http.Request) {
	cid, err := pathID(r, "cid")
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	if err := a.api.DeleteComment(r.Context(), cid); err != nil {
		a.renderError(w, r, err)
		return
	}
	backToSong(w, r)
}

func (a *App) bookmark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	if _, err := a.api.ToggleBookmark(r.Context(), id); err != nil {
		a.renderError(w, r, err)
		return
	}
	backToSong(w, r)
}

type authView struct {
	Next     string
	Username string
	Email    string
	Error    string
}

func (a *App) loginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "login.html", "Sign in", authView{Next: safeNext(r.URL.Query().Get("next"))})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	view := authView{
		Next:  safeNext(r.FormValue("next")),
		Email: strings.TrimSpace(r.FormValue("email")),
	}
	creds := models.Credentials{Email: view.Email, Password: r.FormValue("password")}

	err := creds.Validate(false)
	if err == nil {
		err = a.auth.Login(r.Context(), creds.Email, creds.Password)
	}
	if err != nil {
		a.logger.Warn("sign in failed", "email", view.Email, "error", err)
		view.Error = authMessage(err)
		a.render(w, r, authStatus(err), "login.html", "Sign in", view)
		return
	}
	http.Redirect(w, r, view.Next, http.StatusSeeOther)
}

func (a *App) registerPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "register.html", "Register", authView{Next: "/"})
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	view := authView{
		Next:     "/",
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
	}
	creds := models.Credentials{Username: view.Username, Email: view.Email, Password: r.FormValue("password")}

	err := creds.Validate(true)
	if err == nil {
		err = a.auth.Register(r.Context(), creds)
	}
	if err != nil {
		a.logger.Warn("registration failed", "username", view.Username, "error", err)
		view.Error = authMessage(err)
		a.render(w, r, authStatus(err), "register.html", "Register", view)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authMessage prefers the field list or the server's own message for form errors.
func authMessage(err error) string {
	var missing *models.MissingFieldsError
	if errors.As(err, &missing) {
		return missing.Error()
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return errorMessage(err)
}

func authStatus(err error) int {
	var missing *models.MissingFieldsError
	if errors.As(err, &missing) {
		return http.StatusBadRequest
	}
	if s := statusFor(err); s != http.StatusBadGateway {
		return s
	}
	if services.StatusCode(err) > 0 && services.StatusCode(err) < 500 {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// logout always clears the local session; a failed server logout is only logged.
func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context()); err != nil {
		a.logger.Warn("logout", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type sessionStatus struct {
	Authenticated    bool   `json:"authenticated"`
	Username         string `json:"username,omitempty"`
	SpotifyConnected bool   `json:"spotify_connected"`
}

func (a *App) sessionJSON(w http.ResponseWriter, r *http.Request) {
	sess := a.auth.Session()
	_, spotify := sess.SpotifyToken()
	a.writeJSON(w, http.StatusOK, sessionStatus{
		Authenticated:    sess.IsAuthenticated(),
		Username:         sess.Username(),
		SpotifyConnected: spotify,
	})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to write JSON response", "status", status, "error", err)
	}
}
