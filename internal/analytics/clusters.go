package analytics

import (
	"cmp"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/myvibelytics/internal/spotify"
)

// DefaultClusters is the number of vibe clusters on the dashboard.
const DefaultClusters = 3

// VibeCluster is a group of tracks with similar audio features.
type VibeCluster struct {
	Name     string
	TrackIDs []string
	Centroid Mood
}

// featureObservation wraps AudioFeatures to implement clusters.Observation.
type featureObservation struct {
	trackID string
	coords  clusters.Coordinates
}

func (o featureObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o featureObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// VibeClusters groups tracks by energy, valence, danceability and acousticness
// using k-means, largest cluster first. Fewer tracks than k yields nil.
func VibeClusters(features []spotify.AudioFeatures, k int) []VibeCluster {
	if k <= 0 {
		k = DefaultClusters
	}
	if len(features) < k {
		return nil
	}

	var obs clusters.Observations
	for _, f := range features {
		obs = append(obs, featureObservation{
			trackID: f.TrackID,
			coords:  clusters.Coordinates{f.Energy, f.Valence, f.Danceability, f.Acousticness},
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil
	}

	var out []VibeCluster
	for _, c := range result {
		if len(c.Observations) == 0 {
			continue
		}

		ids := make([]string, 0, len(c.Observations))
		for _, o := range c.Observations {
			if fo, ok := o.(featureObservation); ok {
				ids = append(ids, fo.trackID)
			}
		}

		centroid := Mood{
			Energy:       c.Center[0],
			Valence:      c.Center[1],
			Danceability: c.Center[2],
			Acousticness: c.Center[3],
			Tracks:       len(ids),
		}
		centroid.Name = moodName(centroid.Energy, centroid.Valence, centroid.Acousticness)
		centroid.Description = moodDescription(centroid.Energy, centroid.Valence)

		out = append(out, VibeCluster{
			Name:     centroid.Name,
			TrackIDs: ids,
			Centroid: centroid,
		})
	}

	slices.SortStableFunc(out, func(a, b VibeCluster) int {
		return cmp.Compare(len(b.TrackIDs), len(a.TrackIDs))
	})
	return out
}
