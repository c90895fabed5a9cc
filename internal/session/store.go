package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists session snapshots between runs.
type Store interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// FileStore keeps the session as JSON in a single file, readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore returns a store at path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (f *FileStore) Path() string { return f.path }

// Load reads the session file. A missing file is an empty session.
func (f *FileStore) Load() (Snapshot, error) {
	var snap Snapshot

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("failed to read session: %w", err)
	}
	if len(data) == 0 {
		return snap, nil
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to parse session %s: %w", f.path, err)
	}
	return snap, nil
}

// Save writes to a temp file in the same directory and renames it over the old one.
func (f *FileStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the snapshot in memory.
type MemoryStore struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

func (m *MemoryStore) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryStore) Save(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

// Saves counts calls to Save.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
