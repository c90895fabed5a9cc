// Package web serves the PopHits pages as server-rendered HTML.
//
// Every page that fetches from the API settles each section into a [ViewState] before rendering, so a section
// shows its error, its empty message, or its data. Sections on the same page load concurrently and fail
// independently.
//
// Routes
//
//	GET  /                                      home: random song, top rated, Hot 100, decades, artists, blog
//	GET  /songs                                 filterable, sortable, paginated song list
//	GET  /songs/{slug}                          song detail with comments and rating
//	POST /songs/{id}/rate                       rate, re-rate or clear (clicking the current score)
//	POST /songs/{id}/comments                   add a comment
//	POST /songs/{id}/comments/{cid}/edit        edit own comment
//	POST /songs/{id}/comments/{cid}/delete      delete own comment
//	POST /songs/{id}/bookmark                   toggle bookmark
//	GET  /artists                               artist index (?letter=, ?page=)
//	GET  /artists/{slug}                        artist bio, stats and songs
//	GET  /hot-100                               current or historic chart (?date=)
//	GET  /number-ones                           every #1 hit
//	GET  /playlist-generator                    generated playlist
//	POST /playlist-generator/export             export to Spotify
//	GET  /quiz-generator                        generated quiz
//	GET  /blog, /blog/{slug}                    posts
//	GET  /login, /register, /profile            account pages
//	POST /login, /register, /logout
//	GET  /spotify/login, /spotify/callback, /spotify/token
//	GET  /api/session, /healthz                 JSON, CORS enabled
//
// The app acts for one process-wide session with no cookie, so every POST is refused when the browser marks it as
// coming from another site.
package web

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/server"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/session"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"golang.org/x/oauth2"
)

// Auth signs users in and out. [session.Manager] implements it.
type Auth interface {
	Session() *session.Session
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, creds models.Credentials) error
	Logout(ctx context.Context) error
	ConnectSpotify(tok *oauth2.Token) error
}

// SpotifyClient starts the Spotify sign-in and exports playlists. [services.SpotifyService] implements it.
type SpotifyClient interface {
	AuthURL(state string) string
	tasks.SpotifyClient
}

var (
	_ Auth          = (*session.Manager)(nil)
	_ SpotifyClient = (*services.SpotifyService)(nil)
)

// Options configures an [App].
type Options struct {
	API services.Client
	// Spotify may be nil when no client ID is configured; export pages then explain how to set one.
	Spotify        SpotifyClient
	Auth           Auth
	Logger         *log.Logger
	AllowedOrigins []string
}

// App holds the page handlers and parsed templates.
type App struct {
	api       services.Client
	spotify   SpotifyClient
	auth      Auth
	logger    *log.Logger
	origins   []string
	templates map[string]*template.Template
}

// New parses the templates and returns an app ready to serve.
func New(opts Options) (*App, error) {
	if opts.API == nil {
		return nil, errors.New("web: API client is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("web: auth is required")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		api:       opts.API,
		spotify:   opts.Spotify,
		auth:      opts.Auth,
		logger:    opts.Logger,
		origins:   opts.AllowedOrigins,
		templates: templates,
	}, nil
}

// Handler builds the router with every page and the request middleware.
func (a *App) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.RequestID(), server.Logger(a.logger), server.Recoverer(a.logger), server.SameOrigin(a.origins, a.logger))

	r.HandleFunc(http.MethodGet, "/{$}", a.home)
	r.HandleFunc(http.MethodGet, "/songs", a.songs)
	r.HandleFunc(http.MethodGet, "/songs/{slug}", a.song)
	r.HandleFunc(http.MethodGet, "/artists", a.artists)
	r.HandleFunc(http.MethodGet, "/artists/{slug}", a.artist)
	r.HandleFunc(http.MethodGet, "/hot-100", a.hot100)
	r.HandleFunc(http.MethodGet, "/number-ones", a.numberOnes)
	r.HandleFunc(http.MethodGet, "/playlist-generator", a.playlistGenerator)
	r.HandleFunc(http.MethodGet, "/quiz-generator", a.quizGenerator)
	r.HandleFunc(http.MethodGet, "/blog", a.blog)
	r.HandleFunc(http.MethodGet, "/blog/{slug}", a.blogPost)

	r.HandleFunc(http.MethodGet, "/login", a.loginPage)
	r.HandleFunc(http.MethodPost, "/login", a.login)
	r.HandleFunc(http.MethodGet, "/register", a.registerPage)
	r.HandleFunc(http.MethodPost, "/register", a.register)
	r.HandleFunc(http.MethodPost, "/logout", a.logout)
	r.Handle(http.MethodGet, "/profile", a.requireAuth(http.HandlerFunc(a.profile)))

	r.Handle(http.MethodPost, "/songs/{id}/rate", a.requireAuth(http.HandlerFunc(a.rate)))
	r.Handle(http.MethodPost, "/songs/{id}/comments", a.requireAuth(http.HandlerFunc(a.addComment)))
	r.Handle(http.MethodPost, "/songs/{id}/comments/{cid}/edit", a.requireAuth(http.HandlerFunc(a.editComment)))
	r.Handle(http.MethodPost, "/songs/{id}/comments/{cid}/delete", a.requireAuth(http.HandlerFunc(a.deleteComment)))
	r.Handle(http.MethodPost, "/songs/{id}/bookmark", a.requireAuth(http.HandlerFunc(a.bookmark)))

	r.HandleFunc(http.MethodPost, "/playlist-generator/export", a.exportPlaylist)
	r.HandleFunc(http.MethodGet, "/spotify/login", a.spotifyLogin)
	r.Handle(http.MethodGet, server.CallbackPath, server.CallbackPage(server.TokenPath))
	r.HandleFunc(http.MethodGet, server.TokenPath, a.spotifyToken)

	r.Use(server.CORS(a.origins))
	r.HandleFunc(http.MethodGet, "/api/session", a.sessionJSON)
	r.HandleFunc(http.MethodGet, "/healthz", a.healthz)

	return r
}
