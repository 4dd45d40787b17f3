// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewFromToken creates a client that sends accessToken as a bearer token.
// The token is not refreshed; callers obtain a valid one first.
func NewFromToken(ctx context.Context, accessToken string, opts ...spotify.ClientOption) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	return New(spotify.New(oauth2.NewClient(ctx, src), opts...))
}

// CurrentProfile returns the current user's profile.
func (c *Client) CurrentProfile(ctx context.Context) (*Profile, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	profile := &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}
	if len(user.Images) > 0 {
		profile.AvatarURL = user.Images[0].URL
	}
	return profile, nil
}

// ErrorMessage extracts the provider's message from a Spotify API error.
// Other errors yield their Error() text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status of a Spotify API error, or 0.
func StatusCode(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from Spotify.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
