package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

const maxTracksPerRequest = 100

// ErrNoSeeds is returned when a recommendation query carries no seeds.
var ErrNoSeeds = errors.New("recommendation query has no seeds")

// CreatePlaylist creates a new playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*PlaylistRef, error) {
	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	return &PlaylistRef{
		ID:   playlist.ID.String(),
		Name: playlist.Name,
		URL:  playlist.ExternalURLs["spotify"],
	}, nil
}

// AddTracks appends tracks to a playlist in order, handling batching for large sets.
// Spotify allows max 100 tracks per request.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		if err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return nil
}

// UnfollowPlaylist removes a playlist from the current user's library.
// Spotify has no hard delete; unfollowing by the owner is the equivalent.
func (c *Client) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if err := c.api.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return fmt.Errorf("unfollowing playlist %s: %w", playlistID, err)
	}
	return nil
}

// Recommendations requests tracks matching the query's seeds and feature ranges.
func (c *Client) Recommendations(ctx context.Context, q Query) ([]Track, error) {
	if q.Seeds.Len() == 0 {
		return nil, ErrNoSeeds
	}

	seeds := spotify.Seeds{
		Artists: toIDs(q.Seeds.ArtistIDs),
		Tracks:  toIDs(q.Seeds.TrackIDs),
		Genres:  q.Seeds.Genres,
	}

	p := q.Preset
	attrs := spotify.NewTrackAttributes().
		MinEnergy(p.MinEnergy).
		MaxEnergy(p.MaxEnergy).
		MinDanceability(p.MinDanceability).
		MaxDanceability(p.MaxDanceability).
		MinValence(p.MinValence).
		MaxValence(p.MaxValence).
		MinPopularity(p.MinPopularity).
		MaxPopularity(p.MaxPopularity)

	recs, err := c.api.GetRecommendations(ctx, seeds, attrs, spotify.Limit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("getting recommendations: %w", err)
	}

	tracks := make([]Track, len(recs.Tracks))
	for i, t := range recs.Tracks {
		tracks[i] = convertSimpleTrack(t)
	}
	return tracks, nil
}

func toIDs(ids []string) []spotify.ID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
