// Spotify Web API helper for exporting PopHits playlists
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pophits/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL = "https://accounts.spotify.com/authorize"
	spotifyBaseURL = "https://api.spotify.com/v1"
)

// SpotifyScopes are requested when no scopes are configured.
var SpotifyScopes = []string{
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-library-read",
}

var trackURLPattern = regexp.MustCompile(`spotify\.com/track/([^?/#]+)`)

// SpotifyTokenStore holds the implicit-grant token between requests. [session.Session] implements it.
type SpotifyTokenStore interface {
	SpotifyToken() (*oauth2.Token, bool)
	ClearSpotify()
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Product     string         `json:"product"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist is the playlist object returned on creation.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	URI          string       `json:"uri"`
	ExternalURLs externalURLs `json:"external_urls"`
	SnapshotID   string       `json:"snapshot_id"`
}

// URL returns the open.spotify.com link for the playlist.
func (p SpotifyPlaylist) URL() string {
	if p.ExternalURLs.Spotify != "" {
		return p.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/playlist/" + p.ID
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyBaseURL points the service at a different Web API host.
func WithSpotifyBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.apiBase = strings.TrimRight(u, "/") }
}

// WithSpotifyHTTPClient sets the client whose transport carries authorized requests.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// SpotifyService talks to the Spotify Web API with a token obtained through the implicit grant flow.
// There is no refresh token; an expired or rejected token is cleared and the user signs in again.
type SpotifyService struct {
	config     *oauth2.Config
	apiBase    string
	httpClient *http.Client
	tokens     SpotifyTokenStore
}

// NewSpotifyService creates a Spotify helper from the [spotify] config section.
func NewSpotifyService(cfg shared.SpotifyConfig, tokens SpotifyTokenStore, opts ...SpotifyOption) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: spotify token store", shared.ErrMissingArgument)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = SpotifyScopes
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      scopes,
			Endpoint:    oauth2.Endpoint{AuthURL: spotifyAuthURL},
		},
		apiBase:    spotifyBaseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL for the implicit grant. Spotify redirects back with the token in the URL fragment.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token"))
}

// ParseFragment extracts the token and state from the redirect Spotify sends after sign-in.
// raw may be the full redirect URL, the fragment alone, or a URL whose query carries the fragment values.
func ParseFragment(raw string) (*oauth2.Token, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", fmt.Errorf("%w: empty redirect", shared.ErrMissingArgument)
	}

	params := raw
	if i := strings.Index(raw, "#"); i >= 0 {
		params = raw[i+1:]
	} else if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		params = u.RawQuery
	}

	values, err := url.ParseQuery(params)
	if err != nil {
		return nil, "", fmt.Errorf("%w: malformed redirect: %v", shared.ErrInvalidArgument, err)
	}

	state := values.Get("state")
	if e := values.Get("error"); e != "" {
		return nil, state, fmt.Errorf("%w: spotify returned %s", shared.ErrAuthFailed, e)
	}

	access := values.Get("access_token")
	if access == "" {
		return nil, state, fmt.Errorf("%w: no access_token in redirect", shared.ErrAuthFailed)
	}

	token := &oauth2.Token{AccessToken: access, TokenType: values.Get("token_type")}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if exp := values.Get("expires_in"); exp != "" {
		secs, err := strconv.Atoi(exp)
		if err != nil || secs <= 0 {
			return nil, state, fmt.Errorf("%w: expires_in %q", shared.ErrInvalidArgument, exp)
		}
		token.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return token, state, nil
}

// TrackURI converts an open.spotify.com track link to a spotify:track URI. URIs pass through unchanged.
func TrackURI(spotifyURL string) (string, error) {
	spotifyURL = strings.TrimSpace(spotifyURL)
	if strings.HasPrefix(spotifyURL, "spotify:track:") {
		return spotifyURL, nil
	}

	m := trackURLPattern.FindStringSubmatch(spotifyURL)
	if m == nil {
		return "", fmt.Errorf("%w: not a spotify track link: %q", shared.ErrInvalidArgument, spotifyURL)
	}
	return "spotify:track:" + m[1], nil
}

// TrackURIs converts every convertible link and counts the rest.
func TrackURIs(links []string) (uris []string, skipped int) {
	for _, link := range links {
		uri, err := TrackURI(link)
		if err != nil {
			skipped++
			continue
		}
		uris = append(uris, uri)
	}
	return uris, skipped
}

// CurrentUserID returns the Spotify id of the signed-in user.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// CurrentUser retrieves the signed-in user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: spotify profile without id", shared.ErrDecode)
	}
	return &user, nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*SpotifyPlaylist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: spotify user id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	body := map[string]any{"name": name, "description": description, "public": public}
	var playlist SpotifyPlaylist
	endpoint := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends uris to a playlist in a single request and returns the new snapshot id.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: no tracks to add", shared.ErrMissingArgument)
	}

	var resp struct {
		SnapshotID string `json:"snapshot_id"`
	}
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.doRequest(ctx, http.MethodPost, endpoint, map[string][]string{"uris": uris}, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}

// client wraps the configured transport with the stored token.
func (s *SpotifyService) client(ctx context.Context) (*http.Client, error) {
	token, ok := s.tokens.SpotifyToken()
	if !ok {
		return nil, fmt.Errorf("%w: sign in to spotify first", shared.ErrNotAuthenticated)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiBase+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request cancelled: %w", ctxErr)
		}
		return fmt.Errorf("%w: spotify request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.tokens.ClearSpotify()
		return fmt.Errorf("%w: spotify rejected the token, sign in again", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: spotify %s %s: status %d: %s", shared.ErrAPIRequest, method, endpoint, resp.StatusCode, spotifyErrorMessage(data))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return fmt.Errorf("%w: spotify %s: %v", shared.ErrDecode, endpoint, err)
		}
	}
	return nil
}

func spotifyErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}
