package playlist

import "github.com/justestif/myvibelytics/internal/spotify"

// presets are the audio-feature ranges used per batch, indexed by batch number.
var presets = [...]spotify.Preset{
	{Name: "Chill", MinEnergy: 0.1, MaxEnergy: 0.4, MinDanceability: 0.2, MaxDanceability: 0.6, MinValence: 0.3, MaxValence: 0.7, MinPopularity: 20, MaxPopularity: 80},
	{Name: "Upbeat", MinEnergy: 0.6, MaxEnergy: 0.9, MinDanceability: 0.6, MaxDanceability: 0.9, MinValence: 0.6, MaxValence: 1.0, MinPopularity: 30, MaxPopularity: 90},
	{Name: "Melancholy", MinEnergy: 0.1, MaxEnergy: 0.5, MinDanceability: 0.1, MaxDanceability: 0.5, MinValence: 0.0, MaxValence: 0.35, MinPopularity: 10, MaxPopularity: 70},
	{Name: "Dance Floor", MinEnergy: 0.7, MaxEnergy: 1.0, MinDanceability: 0.75, MaxDanceability: 1.0, MinValence: 0.4, MaxValence: 1.0, MinPopularity: 40, MaxPopularity: 100},
	{Name: "Deep Cuts", MinEnergy: 0.3, MaxEnergy: 0.7, MinDanceability: 0.3, MaxDanceability: 0.7, MinValence: 0.2, MaxValence: 0.8, MinPopularity: 0, MaxPopularity: 40},
	{Name: "Euphoric", MinEnergy: 0.75, MaxEnergy: 1.0, MinDanceability: 0.5, MaxDanceability: 0.9, MinValence: 0.7, MaxValence: 1.0, MinPopularity: 30, MaxPopularity: 90},
	{Name: "Late Night", MinEnergy: 0.2, MaxEnergy: 0.5, MinDanceability: 0.4, MaxDanceability: 0.7, MinValence: 0.1, MaxValence: 0.5, MinPopularity: 10, MaxPopularity: 70},
	{Name: "Focus", MinEnergy: 0.2, MaxEnergy: 0.5, MinDanceability: 0.1, MaxDanceability: 0.4, MinValence: 0.2, MaxValence: 0.6, MinPopularity: 0, MaxPopularity: 60},
	{Name: "Feel Good", MinEnergy: 0.5, MaxEnergy: 0.8, MinDanceability: 0.5, MaxDanceability: 0.8, MinValence: 0.6, MaxValence: 0.9, MinPopularity: 40, MaxPopularity: 100},
	{Name: "Moody", MinEnergy: 0.4, MaxEnergy: 0.7, MinDanceability: 0.3, MaxDanceability: 0.6, MinValence: 0.1, MaxValence: 0.4, MinPopularity: 20, MaxPopularity: 80},
	{Name: "Workout", MinEnergy: 0.8, MaxEnergy: 1.0, MinDanceability: 0.6, MaxDanceability: 0.9, MinValence: 0.4, MaxValence: 0.9, MinPopularity: 30, MaxPopularity: 100},
	{Name: "Dreamy", MinEnergy: 0.2, MaxEnergy: 0.5, MinDanceability: 0.2, MaxDanceability: 0.5, MinValence: 0.3, MaxValence: 0.7, MinPopularity: 0, MaxPopularity: 50},
	{Name: "Groove", MinEnergy: 0.5, MaxEnergy: 0.8, MinDanceability: 0.7, MaxDanceability: 0.95, MinValence: 0.5, MaxValence: 0.9, MinPopularity: 20, MaxPopularity: 80},
	{Name: "Hidden Gems", MinEnergy: 0.3, MaxEnergy: 0.8, MinDanceability: 0.3, MaxDanceability: 0.8, MinValence: 0.3, MaxValence: 0.8, MinPopularity: 0, MaxPopularity: 30},
	{Name: "Anthems", MinEnergy: 0.6, MaxEnergy: 0.95, MinDanceability: 0.4, MaxDanceability: 0.8, MinValence: 0.4, MaxValence: 0.9, MinPopularity: 60, MaxPopularity: 100},
}

// presetFor returns the preset for batch i, cycling back to the first.
func presetFor(i int) spotify.Preset {
	return presets[i%len(presets)]
}
