package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/pophits/internal/shared"
	"golang.org/x/oauth2"
)

type memoryTokens struct {
	mu      sync.Mutex
	token   *oauth2.Token
	cleared bool
}

func (m *memoryTokens) SpotifyToken() (*oauth2.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || !m.token.Valid() {
		return nil, false
	}
	return m.token, true
}

func (m *memoryTokens) ClearSpotify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	m.cleared = true
}

func validTokens() *memoryTokens {
	return &memoryTokens{token: &oauth2.Token{AccessToken: "spotify-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}}
}

func newTestSpotify(t *testing.T, tokens SpotifyTokenStore, h http.HandlerFunc) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	cfg := shared.SpotifyConfig{ClientID: "client", RedirectURI: "http://127.0.0.1:3000/spotify/callback"}
	srv, err := NewSpotifyService(cfg, tokens, WithSpotifyBaseURL(server.URL), WithSpotifyHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{}, validTokens())
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Scopes", func(t *testing.T) {
			srv, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "client"}, validTokens())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(srv.config.Scopes) != len(SpotifyScopes) {
				t.Errorf("expected default scopes, got %v", srv.config.Scopes)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(shared.SpotifyConfig{ClientID: "client", RedirectURI: "http://127.0.0.1:3000/spotify/callback"}, validTokens())
		u, err := url.Parse(srv.AuthURL("state-1"))
		if err != nil {
			t.Fatalf("expected valid url, got %v", err)
		}

		q := u.Query()
		if u.Host != "accounts.spotify.com" {
			t.Errorf("expected spotify host, got %s", u.Host)
		}
		if q.Get("response_type") != "token" {
			t.Errorf("expected response_type=token, got %s", q.Get("response_type"))
		}
		if q.Get("state") != "state-1" || q.Get("client_id") != "client" {
			t.Errorf("unexpected params %v", q)
		}
		if !strings.Contains(q.Get("scope"), "playlist-modify-private") {
			t.Errorf("expected playlist scopes, got %s", q.Get("scope"))
		}
	})

	t.Run("ParseFragment", func(t *testing.T) {
		t.Run("Full Redirect URL", func(t *testing.T) {
			before := time.Now()
			tok, state, err := ParseFragment("http://127.0.0.1:3000/spotify/callback#access_token=abc&token_type=Bearer&expires_in=3600&state=xyz")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok.AccessToken != "abc" || state != "xyz" {
				t.Errorf("unexpected token %+v state %s", tok, state)
			}
			if tok.Expiry.Before(before.Add(59*time.Minute)) || tok.Expiry.After(time.Now().Add(time.Hour)) {
				t.Errorf("expected expiry about an hour out, got %v", tok.Expiry)
			}
		})

		t.Run("Bare Fragment", func(t *testing.T) {
			tok, _, err := ParseFragment("access_token=abc&expires_in=60")
			if err != nil || tok.AccessToken != "abc" || tok.TokenType != "Bearer" {
				t.Errorf("unexpected result %+v %v", tok, err)
			}
		})

		t.Run("Query Form", func(t *testing.T) {
			tok, state, err := ParseFragment("http://127.0.0.1:3000/spotify/token?access_token=abc&state=s")
			if err != nil || tok.AccessToken != "abc" || state != "s" {
				t.Errorf("unexpected result %+v %s %v", tok, state, err)
			}
		})

		tests := []struct {
			name     string
			raw      string
			sentinel error
		}{
			{"Empty", "", shared.ErrMissingArgument},
			{"Access Denied", "#error=access_denied&state=s", shared.ErrAuthFailed},
			{"No Token", "#state=s", shared.ErrAuthFailed},
			{"Bad Expiry", "#access_token=a&expires_in=soon", shared.ErrInvalidArgument},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, _, err := ParseFragment(tt.raw); !errors.Is(err, tt.sentinel) {
					t.Errorf("expected %v, got %v", tt.sentinel, err)
				}
			})
		}
	})

	t.Run("TrackURI", func(t *testing.T) {
		tests := []struct {
			in, want string
			ok       bool
		}{
			{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=123", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", true},
			{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", true},
			{"spotify:track:abc", "spotify:track:abc", true},
			{"https://open.spotify.com/album/xyz", "", false},
			{"", "", false},
		}
		for _, tt := range tests {
			got, err := TrackURI(tt.in)
			if tt.ok && (err != nil || got != tt.want) {
				t.Errorf("TrackURI(%q): expected %s, got %s (%v)", tt.in, tt.want, got, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("TrackURI(%q): expected error", tt.in)
			}
		}

		uris, skipped := TrackURIs([]string{"spotify:track:a", "", "https://open.spotify.com/track/b"})
		if len(uris) != 2 || skipped != 1 {
			t.Errorf("expected 2 uris and 1 skipped, got %v %d", uris, skipped)
		}
	})

	t.Run("Web API", func(t *testing.T) {
		t.Run("Create And Add", func(t *testing.T) {
			var calls []string
			var mu sync.Mutex
			srv := newTestSpotify(t, validTokens(), func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				calls = append(calls, r.Method+" "+r.URL.Path)
				mu.Unlock()

				if got := r.Header.Get("Authorization"); got != "Bearer spotify-token" {
					t.Errorf("expected bearer token, got %q", got)
				}

				switch r.URL.Path {
				case "/me":
					json.NewEncoder(w).Encode(SpotifyUser{ID: "user-1"})
				case "/users/user-1/playlists":
					var body map[string]any
					json.NewDecoder(r.Body).Decode(&body)
					if body["name"] != "PopHits Mix" {
						t.Errorf("expected playlist name, got %v", body)
					}
					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(SpotifyPlaylist{ID: "pl-1", Name: "PopHits Mix"})
				case "/playlists/pl-1/tracks":
					var body map[string][]string
					json.NewDecoder(r.Body).Decode(&body)
					if len(body["uris"]) != 2 {
						t.Errorf("expected 2 uris, got %v", body)
					}
					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "snap"})
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			})

			ctx := context.Background()
			id, err := srv.CurrentUserID(ctx)
			if err != nil || id != "user-1" {
				t.Fatalf("expected user-1, got %s (%v)", id, err)
			}
			pl, err := srv.CreatePlaylist(ctx, id, "PopHits Mix", "", false)
			if err != nil || pl.ID != "pl-1" {
				t.Fatalf("expected playlist pl-1, got %v", err)
			}
			if pl.URL() != "https://open.spotify.com/playlist/pl-1" {
				t.Errorf("unexpected playlist url %s", pl.URL())
			}
			snap, err := srv.AddTracks(ctx, pl.ID, []string{"spotify:track:a", "spotify:track:b"})
			if err != nil || snap != "snap" {
				t.Fatalf("expected snapshot, got %v", err)
			}
			if len(calls) != 3 {
				t.Errorf("expected 3 calls, got %v", calls)
			}
		})

		t.Run("Unauthorized Clears Token", func(t *testing.T) {
			tokens := validTokens()
			srv := newTestSpotify(t, tokens, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			_, err := srv.CurrentUserID(context.Background())
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if !tokens.cleared {
				t.Error("expected token to be cleared")
			}
		})

		t.Run("No Token", func(t *testing.T) {
			srv := newTestSpotify(t, &memoryTokens{}, func(w http.ResponseWriter, r *http.Request) {
				t.Error("expected no request without a token")
			})

			_, err := srv.CurrentUserID(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			tokens := &memoryTokens{token: &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}}
			srv := newTestSpotify(t, tokens, func(w http.ResponseWriter, r *http.Request) {
				t.Error("expected no request with an expired token")
			})

			if _, err := srv.CurrentUserID(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Error Message", func(t *testing.T) {
			srv := newTestSpotify(t, validTokens(), func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": {"status": 403, "message": "Insufficient client scope"}}`))
			})

			_, err := srv.AddTracks(context.Background(), "pl", []string{"spotify:track:a"})
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Insufficient client scope") {
				t.Errorf("expected scope error, got %v", err)
			}
		})
	})
}
