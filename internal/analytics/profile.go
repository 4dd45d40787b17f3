package analytics

import "github.com/justestif/myvibelytics/internal/spotify"

// DefaultTopGenres is how many genres a profile keeps.
const DefaultTopGenres = 10

// Profile collects the analytics shown on the dashboard.
type Profile struct {
	TopTracks      []spotify.Track
	TopArtists     []spotify.Artist
	Mood           Mood
	Genres         []GenreShare
	DistinctGenres int
	AvgPopularity  float64
	Clusters       []VibeCluster
	Personality    Trait
}

// BuildProfile computes every analytic in one pass over the inputs.
func BuildProfile(tracks []spotify.Track, artists []spotify.Artist, features []spotify.AudioFeatures) *Profile {
	p := &Profile{
		TopTracks:      tracks,
		TopArtists:     artists,
		Mood:           MoodProfile(features),
		Genres:         GenreBreakdown(artists, DefaultTopGenres),
		DistinctGenres: DistinctGenres(artists),
		AvgPopularity:  averagePopularity(tracks),
		Clusters:       VibeClusters(features, DefaultClusters),
	}
	p.Personality = Personality(p)
	return p
}

func averagePopularity(tracks []spotify.Track) float64 {
	if len(tracks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range tracks {
		sum += t.Popularity
	}
	return float64(sum) / float64(len(tracks))
}
