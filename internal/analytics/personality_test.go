package analytics

import (
	"fmt"
	"testing"
)

func TestPersonality(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{
			name:    "mainstream high energy",
			profile: Profile{AvgPopularity: 80, Mood: Mood{Energy: 0.8}},
			want:    "The Hype Machine",
		},
		{
			name:    "mainstream low energy",
			profile: Profile{AvgPopularity: 70, Mood: Mood{Energy: 0.3}},
			want:    "The Comfort Listener",
		},
		{
			name:    "explorer high energy",
			profile: Profile{AvgPopularity: 30, Mood: Mood{Energy: 0.9}},
			want:    "The Adventurer",
		},
		{
			name:    "explorer low energy",
			profile: Profile{AvgPopularity: 20, Mood: Mood{Energy: 0.2}},
			want:    "The Curator",
		},
		{
			name: "wide genre spread",
			profile: Profile{
				AvgPopularity:  80,
				DistinctGenres: 20,
				Genres:         []GenreShare{{Genre: "pop", Share: 0.1}},
			},
			want: "The Eclectic",
		},
		{
			name: "many genres but one dominates",
			profile: Profile{
				AvgPopularity:  80,
				Mood:           Mood{Energy: 0.8},
				DistinctGenres: 20,
				Genres:         []GenreShare{{Genre: "pop", Share: 0.4}},
			},
			want: "The Hype Machine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personality(&tt.profile)
			if got.Name != tt.want {
				t.Errorf("Personality() = %q, want %q", got.Name, tt.want)
			}
			if got.Description == "" {
				t.Error("Description should not be empty")
			}
		})
	}
}

func TestTraitsTableComplete(t *testing.T) {
	for _, explorer := range []bool{false, true} {
		for _, highEnergy := range []bool{false, true} {
			key := traitKey{explorer: explorer, highEnergy: highEnergy}
			if _, ok := traits[key]; !ok {
				t.Errorf("missing trait for %s", fmt.Sprint(key))
			}
		}
	}
}
