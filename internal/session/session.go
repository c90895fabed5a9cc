package session

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// AuthToken is the PopHits API token. PopHits tokens do not expire on their own, so ExpiresAt is usually zero.
type AuthToken struct {
	Value     string    `json:"value"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the token is present and not past its expiry at now.
func (t AuthToken) Valid(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	return t.ExpiresAt.IsZero() || now.Before(t.ExpiresAt)
}

// Snapshot is the persisted form of a [Session].
type Snapshot struct {
	Token    AuthToken     `json:"token"`
	Username string        `json:"username,omitempty"`
	UserID   int           `json:"user_id,omitempty"`
	Spotify  *oauth2.Token `json:"spotify,omitempty"`
}

// Equal compares the fields that matter for persistence.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Token.Value != o.Token.Value || !s.Token.ExpiresAt.Equal(o.Token.ExpiresAt) || s.Username != o.Username || s.UserID != o.UserID {
		return false
	}
	if (s.Spotify == nil) != (o.Spotify == nil) {
		return false
	}
	if s.Spotify == nil {
		return true
	}
	return s.Spotify.AccessToken == o.Spotify.AccessToken && s.Spotify.Expiry.Equal(o.Spotify.Expiry)
}

// Session holds the signed-in user's PopHits token and Spotify token.
// It is created once at startup and passed to whatever needs it. Safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	token    AuthToken
	username string
	userID   int
	spotify  *oauth2.Token

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
	now    func() time.Time
}

// New returns an empty, signed-out session.
func New() *Session {
	return &Session{subs: make(map[int]func(Snapshot)), now: time.Now}
}

// Token returns the PopHits token, or "" when signed out or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.token.Valid(s.now()) {
		return ""
	}
	return s.token.Value
}

// IsAuthenticated reports whether a usable PopHits token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Username returns the name recorded at sign-in.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// UserID returns the PopHits account id, or 0 when it has not been looked up.
func (s *Session) UserID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Set stores a new PopHits token and notifies subscribers. The account id is reset until [Session.SetUser] is called.
func (s *Session) Set(token, username string) {
	s.mu.Lock()
	s.token = AuthToken{Value: token, IssuedAt: s.now()}
	s.username = username
	s.userID = 0
	s.mu.Unlock()
	s.notify()
}

// SetUser records the account behind the current token. An empty username keeps the existing one.
func (s *Session) SetUser(id int, username string) {
	s.mu.Lock()
	s.userID = id
	if username != "" {
		s.username = username
	}
	s.mu.Unlock()
	s.notify()
}

// Clear signs out of PopHits. The Spotify token is left alone.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = AuthToken{}
	s.username = ""
	s.userID = 0
	s.mu.Unlock()
	s.notify()
}

// SetSpotify stores an implicit-grant token.
func (s *Session) SetSpotify(tok *oauth2.Token) {
	s.mu.Lock()
	s.spotify = tok
	s.mu.Unlock()
	s.notify()
}

// SpotifyToken returns the Spotify token while it is unexpired.
func (s *Session) SpotifyToken() (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spotify == nil || s.spotify.AccessToken == "" {
		return nil, false
	}
	if !s.spotify.Expiry.IsZero() && !s.now().Before(s.spotify.Expiry) {
		return nil, false
	}
	tok := *s.spotify
	return &tok, true
}

// ClearSpotify drops the Spotify token.
func (s *Session) ClearSpotify() {
	s.mu.Lock()
	changed := s.spotify != nil
	s.spotify = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Token: s.token, Username: s.username, UserID: s.userID}
	if s.spotify != nil {
		tok := *s.spotify
		snap.Spotify = &tok
	}
	return snap
}

// Restore replaces the state with snap. Subscribers are notified only when something changed.
func (s *Session) Restore(snap Snapshot) {
	if s.Snapshot().Equal(snap) {
		return
	}

	s.mu.Lock()
	s.token = snap.Token
	s.username = snap.Username
	s.userID = snap.UserID
	s.spotify = snap.Spotify
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every change. Call the returned func to unsubscribe.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notify() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
