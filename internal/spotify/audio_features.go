package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// AudioFeatures retrieves audio features for the given track IDs.
// Batches requests to max 100 tracks per request per Spotify API limits.
// Tracks without available audio features are omitted from the result.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) ([]AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	ids := toIDs(trackIDs)
	total := len(ids)
	result := make([]AudioFeatures, 0, total)

	for i := 0; i < total; i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, total)

		features, err := c.api.GetAudioFeatures(ctx, ids[i:end]...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue // Track has no audio features
			}
			result = append(result, convertAudioFeatures(f))
		}
	}

	return result, nil
}

// convertAudioFeatures copies the feature values analytics uses.
func convertAudioFeatures(f *spotify.AudioFeatures) AudioFeatures {
	return AudioFeatures{
		TrackID:          f.ID.String(),
		Acousticness:     float64(f.Acousticness),
		Danceability:     float64(f.Danceability),
		Energy:           float64(f.Energy),
		Instrumentalness: float64(f.Instrumentalness),
		Speechiness:      float64(f.Speechiness),
		Tempo:            float64(f.Tempo),
		Valence:          float64(f.Valence),
	}
}
