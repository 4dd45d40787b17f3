package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxRecentlyPlayed is the API's page cap for recently played items.
const maxRecentlyPlayed = 50

// TopTracks returns the user's top tracks for the given window.
func (c *Client) TopTracks(ctx context.Context, rng Range, limit int) ([]Track, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx,
		spotify.Timerange(spotify.Range(rng)),
		spotify.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}

	tracks := make([]Track, len(page.Tracks))
	for i, t := range page.Tracks {
		tracks[i] = convertSimpleTrack(t.SimpleTrack)
		tracks[i].Popularity = int(t.Popularity)
	}
	return tracks, nil
}

// TopArtists returns the user's top artists for the given window.
func (c *Client) TopArtists(ctx context.Context, rng Range, limit int) ([]Artist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx,
		spotify.Timerange(spotify.Range(rng)),
		spotify.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}

	artists := make([]Artist, len(page.Artists))
	for i, a := range page.Artists {
		artists[i] = convertArtist(a)
	}
	return artists, nil
}

// RecentlyPlayed returns the user's most recently played tracks, newest first.
func (c *Client) RecentlyPlayed(ctx context.Context) ([]Track, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{
		Limit: maxRecentlyPlayed,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	tracks := make([]Track, len(items))
	for i, item := range items {
		tracks[i] = convertSimpleTrack(item.Track)
	}
	return tracks, nil
}

// convertSimpleTrack converts a Spotify SimpleTrack to a Track.
func convertSimpleTrack(t spotify.SimpleTrack) Track {
	names := make([]string, len(t.Artists))
	ids := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
		ids[i] = a.ID.String()
	}

	return Track{
		ID:        t.ID.String(),
		Name:      t.Name,
		URI:       string(t.URI),
		Artists:   names,
		ArtistIDs: ids,
	}
}

// convertArtist converts a Spotify FullArtist to an Artist.
func convertArtist(a spotify.FullArtist) Artist {
	genres := make([]string, len(a.Genres))
	copy(genres, a.Genres)

	return Artist{
		ID:         a.ID.String(),
		Name:       a.Name,
		Genres:     genres,
		Popularity: int(a.Popularity),
	}
}
