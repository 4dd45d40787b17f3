// Package lastfm provides Last.fm API integration for fetching artist and track tags.
package lastfm

import "errors"

// ErrMissingAPIKey is returned when no Last.fm API key is configured.
var ErrMissingAPIKey = errors.New("missing Last.fm API key")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey string
}

// Validate returns ErrMissingAPIKey if APIKey is empty.
func (c *Config) Validate() error {
	if c == nil || c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
