package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justestif/myvibelytics/internal/db"
)

// UserTokenRepository is the subset of db.UserRepository used by DBStore.
type UserTokenRepository interface {
	Get(ctx context.Context, id string) (*db.User, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	ClearTokens(ctx context.Context, id string) error
}

// DBStore keeps token state on the Postgres users row.
type DBStore struct {
	users UserTokenRepository
}

// NewDBStore creates a DBStore backed by users.
func NewDBStore(users UserTokenRepository) *DBStore {
	return &DBStore{users: users}
}

// Read loads the user's token columns. Unknown users yield a zero TokenState.
func (s *DBStore) Read(ctx context.Context, userID string) (*TokenState, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return &TokenState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token state: %w", err)
	}

	state := &TokenState{Connected: user.SpotifyConnected}
	if user.AccessToken != nil {
		state.AccessToken = *user.AccessToken
	}
	if user.RefreshToken != nil {
		state.RefreshToken = *user.RefreshToken
	}
	if user.TokenExpiresAt != nil {
		state.ExpiresAt = *user.TokenExpiresAt
	}
	return state, nil
}

// Write persists state as a single row update. A state without an access
// token is written as NULL columns with the connected flag off.
func (s *DBStore) Write(ctx context.Context, userID string, state *TokenState) error {
	if state == nil || state.AccessToken == "" {
		if err := s.users.ClearTokens(ctx, userID); err != nil {
			return fmt.Errorf("clearing token state: %w", err)
		}
		return nil
	}

	if err := s.users.UpdateTokens(ctx, userID, state.AccessToken, state.RefreshToken, state.ExpiresAt); err != nil {
		return fmt.Errorf("writing token state: %w", err)
	}
	return nil
}
