// Package analytics derives listening insights from top tracks, artists and audio features.
package analytics

import "github.com/justestif/myvibelytics/internal/spotify"

// Mood is the average audio profile of a set of tracks.
type Mood struct {
	Name         string
	Description  string
	Energy       float64
	Valence      float64
	Danceability float64
	Acousticness float64
	Tempo        float64
	Tracks       int
}

// MoodProfile averages features and names the resulting mood.
// An empty input yields the zero Mood.
func MoodProfile(features []spotify.AudioFeatures) Mood {
	if len(features) == 0 {
		return Mood{}
	}

	var m Mood
	for _, f := range features {
		m.Energy += f.Energy
		m.Valence += f.Valence
		m.Danceability += f.Danceability
		m.Acousticness += f.Acousticness
		m.Tempo += f.Tempo
	}

	n := float64(len(features))
	m.Energy /= n
	m.Valence /= n
	m.Danceability /= n
	m.Acousticness /= n
	m.Tempo /= n
	m.Tracks = len(features)
	m.Name = moodName(m.Energy, m.Valence, m.Acousticness)
	m.Description = moodDescription(m.Energy, m.Valence)
	return m
}

// moodName names a point on the 2x2 energy/valence quadrant system with an
// acousticness modifier.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Acousticness above 0.6 appends " (Acoustic)".
func moodName(energy, valence, acousticness float64) string {
	var baseName string

	highEnergy := energy > 0.6
	highValence := valence > 0.5

	switch {
	case highEnergy && highValence:
		baseName = "Upbeat Party"
	case highEnergy && !highValence:
		baseName = "Intense & Dark"
	case !highEnergy && highValence:
		baseName = "Chill & Happy"
	default: // low energy, low valence
		baseName = "Reflective & Melancholy"
	}

	if acousticness > 0.6 {
		return baseName + " (Acoustic)"
	}

	return baseName
}

func moodDescription(energy, valence float64) string {
	switch {
	case energy > 0.6 && valence > 0.5:
		return "High-energy, positive vibes - perfect for dancing and celebrations"
	case energy > 0.6 && valence <= 0.5:
		return "Intense, driving energy with darker emotional tones"
	case energy <= 0.6 && valence > 0.5:
		return "Relaxed and uplifting - great for unwinding"
	default:
		return "Contemplative and introspective - ideal for quiet moments"
	}
}
