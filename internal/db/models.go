package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a Spotify listener with their stored credentials.
// Token columns are NULL while the account is disconnected.
type User struct {
	ID               string
	DisplayName      string
	Email            string
	AvatarURL        *string
	AccessToken      *string
	RefreshToken     *string
	TokenExpiresAt   *time.Time
	SpotifyConnected bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session is an authenticated web session. Tokens live on the user row.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Track is a Spotify track referenced by a generated playlist.
type Track struct {
	ID        string
	Name      string
	Artist    string
	URI       string
	CreatedAt time.Time
}

// GeneratedPlaylist is one run of the playlist builder.
type GeneratedPlaylist struct {
	ID                uuid.UUID
	UserID            string
	SpotifyPlaylistID string
	Name              string
	URL               string
	TrackCount        int
	BatchesIssued     int
	BatchesSkipped    int
	CreatedAt         time.Time
}

// ArtistGenre is a cached genre tag for an artist.
type ArtistGenre struct {
	ArtistID  string
	Genre     string
	Weight    int
	FetchedAt time.Time
}
