package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidUserID is returned when a user ID cannot be used as a file name.
var ErrInvalidUserID = errors.New("invalid user id")

// FileStore persists one JSON file per user under a directory.
// Used by the CLI when no database is configured.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory where token files are stored.
func (s *FileStore) Dir() string {
	return s.dir
}

// Read loads the user's token file. A missing file yields a zero TokenState.
func (s *FileStore) Read(_ context.Context, userID string) (*TokenState, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TokenState{}, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var state TokenState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	return &state, nil
}

// Write saves state to disk, creating the directory if needed.
func (s *FileStore) Write(_ context.Context, userID string, state *TokenState) error {
	if state == nil {
		return errors.New("cannot save nil token state")
	}

	path, err := s.path(userID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token state: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Delete removes the user's token file. Missing files are not an error.
func (s *FileStore) Delete(userID string) error {
	path, err := s.path(userID)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func (s *FileStore) path(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return filepath.Join(s.dir, userID+".json"), nil
}
