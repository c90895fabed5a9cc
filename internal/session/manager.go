package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/oauth2"
)

// Authenticator is the part of the PopHits API the manager drives.
type Authenticator interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthToken, error)
	Login(ctx context.Context, email, password string) (*models.AuthToken, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
}

// Manager signs users in and out and keeps the session persisted.
// Every change to the session is saved to the store.
type Manager struct {
	session     *Session
	store       Store
	api         Authenticator
	logger      *log.Logger
	unsubscribe func()
}

// NewManager restores the stored session into s and starts persisting changes.
func NewManager(s *Session, store Store, api Authenticator, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	m := &Manager{session: s, store: store, api: api, logger: logger}

	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.Restore(snap)

	m.unsubscribe = s.Subscribe(func(snap Snapshot) {
		if err := m.store.Save(snap); err != nil {
			m.logger.Error("failed to save session", "error", err)
		}
	})
	return m, nil
}

// Session returns the managed session.
func (m *Manager) Session() *Session { return m.session }

// Close stops persisting changes.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Login exchanges credentials for a token and stores it.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	tok, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	m.session.Set(tok.Token, strings.TrimSpace(email))
	if err := m.Identify(ctx); err != nil {
		m.logger.Warn("signed in but profile lookup failed", "error", err)
	}
	m.logger.Info("signed in", "user", m.session.Username())
	return nil
}

// Register creates an account and signs in with the returned token.
func (m *Manager) Register(ctx context.Context, creds models.Credentials) error {
	tok, err := m.api.Register(ctx, creds)
	if err != nil {
		return err
	}

	m.session.Set(tok.Token, creds.Username)
	if err := m.Identify(ctx); err != nil {
		m.logger.Warn("registered but profile lookup failed", "error", err)
	}
	m.logger.Info("registered", "user", creds.Username)
	return nil
}

// Identify fetches the profile for the current token and records the account's id and username.
// Login only echoes a token, so comment ownership depends on this lookup.
func (m *Manager) Identify(ctx context.Context) error {
	profile, err := m.api.Profile(ctx)
	if err != nil {
		return err
	}
	m.session.SetUser(profile.User.ID, profile.User.Username)
	return nil
}

// Logout invalidates the token on the server and clears it locally.
// The local session is cleared even when the server call fails; that error is still returned.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.session.IsAuthenticated() {
		m.session.Clear()
		return nil
	}

	err := m.api.Logout(ctx)
	m.session.Clear()
	if err != nil {
		m.logger.Warn("server logout failed, local session cleared", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ConnectSpotify stores a Spotify token read from the implicit-grant redirect.
func (m *Manager) ConnectSpotify(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: spotify token", shared.ErrMissingArgument)
	}
	m.session.SetSpotify(tok)
	return nil
}

// Reload re-reads the store and applies any change.
func (m *Manager) Reload() error {
	snap, err := m.store.Load()
	if err != nil {
		return err
	}
	m.session.Restore(snap)
	return nil
}

// Watch reloads the session whenever another process rewrites the session file.
// It blocks until ctx is done. Stores that are not file backed return immediately.
// Failures are logged and never stop the caller.
func (m *Manager) Watch(ctx context.Context) error {
	fs, ok := m.store.(*FileStore)
	if !ok {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start session watcher: %w", err)
	}
	defer watcher.Close()

	// Saves replace the file by rename, so the directory is watched rather than the file.
	dir, name := filepath.Dir(fs.Path()), filepath.Base(fs.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	m.logger.Debug("watching session file", "path", fs.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := m.Reload(); err != nil {
				m.logger.Warn("failed to reload session", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				m.logger.Warn("session watcher error", "error", err)
			}
		}
	}
}
