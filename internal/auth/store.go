package auth

import (
	"context"
	"sync"
)

// Store persists TokenState keyed by Spotify user ID.
// Read returns a zero TokenState for a user with nothing stored.
type Store interface {
	Read(ctx context.Context, userID string) (*TokenState, error)
	Write(ctx context.Context, userID string, state *TokenState) error
}

// MemoryStore keeps token state in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]TokenState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]TokenState)}
}

// Read returns a copy of the stored state.
func (s *MemoryStore) Read(_ context.Context, userID string) (*TokenState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.states[userID]
	return &state, nil
}

// Write stores a copy of state.
func (s *MemoryStore) Write(_ context.Context, userID string, state *TokenState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = *state
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*DBStore)(nil)
)
