package spotify

import (
	"context"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestConvertAudioFeatures(t *testing.T) {
	f := &spotify.AudioFeatures{
		ID:               "test123",
		Acousticness:     0.5,
		Danceability:     0.7,
		Energy:           0.8,
		Instrumentalness: 0.1,
		Speechiness:      0.05,
		Tempo:            120.0,
		Valence:          0.6,
	}

	got := convertAudioFeatures(f)

	if got.TrackID != "test123" {
		t.Errorf("TrackID = %q, want %q", got.TrackID, "test123")
	}

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"Acousticness", got.Acousticness, 0.5},
		{"Danceability", got.Danceability, 0.7},
		{"Energy", got.Energy, 0.8},
		{"Instrumentalness", got.Instrumentalness, 0.1},
		{"Speechiness", got.Speechiness, 0.05},
		{"Tempo", got.Tempo, 120.0},
		{"Valence", got.Valence, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.expected) > 1e-6 {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestAudioFeatures_SkipsMissing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio-features" {
			t.Errorf("path = %s, want /audio-features", r.URL.Path)
		}
		if ids := r.URL.Query().Get("ids"); !strings.Contains(ids, "t1") {
			t.Errorf("ids = %q, want to contain t1", ids)
		}
		writeJSON(w, http.StatusOK, `{"audio_features":[{"id":"t1","energy":0.9,"valence":0.4},null]}`)
	})

	got, err := client.AudioFeatures(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("AudioFeatures() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(AudioFeatures()) = %d, want 1", len(got))
	}
	if got[0].TrackID != "t1" {
		t.Errorf("TrackID = %q, want t1", got[0].TrackID)
	}
}

func TestAudioFeatures_Empty(t *testing.T) {
	client := New(spotify.New(http.DefaultClient))

	got, err := client.AudioFeatures(context.Background(), nil)
	if err != nil {
		t.Fatalf("AudioFeatures() error = %v", err)
	}
	if got != nil {
		t.Errorf("AudioFeatures() = %v, want nil", got)
	}
}
