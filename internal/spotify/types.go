package spotify

import "strings"

// Track is a Spotify track with the fields the app needs.
type Track struct {
	ID         string
	Name       string
	URI        string
	Artists    []string
	ArtistIDs  []string
	Popularity int
}

// ArtistNames returns artist names joined by ", ".
func (t Track) ArtistNames() string {
	return strings.Join(t.Artists, ", ")
}

// Artist is a Spotify artist.
type Artist struct {
	ID         string
	Name       string
	Genres     []string
	Popularity int
}

// Profile is the current user's account identity.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

// PlaylistRef identifies a playlist on Spotify.
type PlaylistRef struct {
	ID   string
	Name string
	URL  string
}

// Range is a listening-history window for top items.
type Range string

// Listening history windows.
const (
	ShortTerm  Range = "short_term"
	MediumTerm Range = "medium_term"
	LongTerm   Range = "long_term"
)

// Seeds are the seed material for one recommendation request.
// Spotify accepts at most five seeds in total.
type Seeds struct {
	ArtistIDs []string
	TrackIDs  []string
	Genres    []string
}

// Len returns the total number of seeds.
func (s Seeds) Len() int {
	return len(s.ArtistIDs) + len(s.TrackIDs) + len(s.Genres)
}

// Preset is a set of audio-feature ranges for a recommendation request.
type Preset struct {
	Name            string
	MinEnergy       float64
	MaxEnergy       float64
	MinDanceability float64
	MaxDanceability float64
	MinValence      float64
	MaxValence      float64
	MinPopularity   int
	MaxPopularity   int
}

// Query is one recommendation request.
type Query struct {
	Seeds  Seeds
	Preset Preset
	Limit  int
}

// AudioFeatures holds the audio features used by analytics.
type AudioFeatures struct {
	TrackID          string
	Acousticness     float64
	Danceability     float64
	Energy           float64
	Instrumentalness float64
	Speechiness      float64
	Tempo            float64
	Valence          float64
}
