package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

var (
	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrAuthorizationDenied is returned when Spotify redirects back with an error.
	ErrAuthorizationDenied = errors.New("spotify authorization denied")
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// Authenticator runs the Spotify authorization-code flow.
type Authenticator struct {
	auth *spotifyauth.Authenticator
	now  func() time.Time
}

// NewAuthenticator creates an Authenticator for the given app credentials.
func NewAuthenticator(clientID, clientSecret, redirectURL string) *Authenticator {
	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithScopes(Scopes...),
		),
		now: time.Now,
	}
}

// AuthURL returns the URL to redirect the user to.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange validates the callback request and trades the code for a TokenState.
func (a *Authenticator) Exchange(ctx context.Context, r *http.Request, state string) (*TokenState, error) {
	if r.URL.Query().Get("state") != state {
		return nil, ErrStateMismatch
	}
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, errMsg)
	}

	tok, err := a.auth.Token(ctx, state, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return FromOAuth2(tok, a.now()), nil
}

// GenerateState creates a random state string for OAuth.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
