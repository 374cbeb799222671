// Package session persists browser authentication state between runs so
// the bot can skip credential submission (and the challenge risk that
// comes with it) whenever a previously captured session is still valid.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// State is the serialized browser storage-state blob plus the moment it
// was captured. The blob itself is opaque to everything outside the
// authenticator.
type State struct {
	CapturedAt   time.Time       `json:"captured_at"`
	BrowserState json.RawMessage `json:"browser_state"`
}

// IsStale reports whether the session is older than maxAge and must be
// re-established rather than trusted.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.CapturedAt) > maxAge
}

// Store persists one session blob per account. Absent or corrupt state is
// reported as absent, never as an error; re-authentication is always a
// valid fallback.
type Store interface {
	Load(ctx context.Context) (*State, bool)
	Save(ctx context.Context, state *State) error
	Invalidate(ctx context.Context) error
}

// FileStore keeps the session blob as a JSON file under dir, one file per
// account.
type FileStore struct {
	path string
}

func NewFileStore(dir, account string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, fmt.Sprintf("%s-session.json", account)),
	}, nil
}

func (fs *FileStore) Load(_ context.Context) (*State, bool) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read session file: %v", err)
		}
		return nil, false
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("⚠️ Corrupt session file, treating as absent: %v", err)
		return nil, false
	}
	if len(state.BrowserState) == 0 || state.CapturedAt.IsZero() {
		return nil, false
	}
	return &state, true
}

// Save writes the blob atomically: a crash mid-write leaves either the
// prior session file or the new one, never a truncated mix.
func (fs *FileStore) Save(_ context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (fs *FileStore) Invalidate(_ context.Context) error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
