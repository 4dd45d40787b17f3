// Package auth manages Spotify credentials: the authorization-code flow,
// token persistence, and refresh-before-expiry.
package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenState is the credential for one connected Spotify account.
// ExpiresAt is always derived from the provider's expires_in at issuance.
type TokenState struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Connected    bool      `json:"connected"`
}

// Clear empties every token field and marks the account disconnected.
func (s *TokenState) Clear() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.ExpiresAt = time.Time{}
	s.Connected = false
}

// FromOAuth2 converts a token from the code exchange into a TokenState.
// ExpiresIn is preferred over Expiry so the expiry is computed against now.
func FromOAuth2(tok *oauth2.Token, now time.Time) *TokenState {
	state := &TokenState{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Connected:    tok.AccessToken != "",
	}
	if tok.ExpiresIn > 0 {
		state.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return state
}
