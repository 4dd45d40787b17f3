package analytics

import (
	"fmt"
	"strings"
)

const sampleCount = 5

// FormatSummary returns a human-readable summary of a profile.
func FormatSummary(p *Profile) string {
	var sb strings.Builder

	if len(p.TopTracks) == 0 && len(p.TopArtists) == 0 {
		sb.WriteString("No listening history found\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Personality: %s\n", p.Personality.Name))
	sb.WriteString(fmt.Sprintf("  %s\n", p.Personality.Description))

	if p.Mood.Tracks > 0 {
		sb.WriteString(fmt.Sprintf("\nMood: %s (%d tracks)\n", p.Mood.Name, p.Mood.Tracks))
		sb.WriteString(fmt.Sprintf("  energy %.2f, valence %.2f, danceability %.2f, acousticness %.2f\n",
			p.Mood.Energy, p.Mood.Valence, p.Mood.Danceability, p.Mood.Acousticness))
	}

	if len(p.Genres) > 0 {
		sb.WriteString(fmt.Sprintf("\nTop genres (%d distinct):\n", p.DistinctGenres))
		for _, g := range p.Genres {
			sb.WriteString(fmt.Sprintf("  %-24s %5.1f%%\n", g.Genre, g.Share*100))
		}
	}

	if len(p.TopTracks) > 0 {
		sb.WriteString("\nTop tracks:\n")
		for i := range min(sampleCount, len(p.TopTracks)) {
			t := p.TopTracks[i]
			sb.WriteString(fmt.Sprintf("  %d. \"%s\" - %s\n", i+1, t.Name, t.ArtistNames()))
		}
		if remaining := len(p.TopTracks) - sampleCount; remaining > 0 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
		}
	}

	if len(p.Clusters) > 0 {
		sb.WriteString("\nVibes:\n")
		for _, c := range p.Clusters {
			trackWord := "track"
			if len(c.TrackIDs) > 1 {
				trackWord = "tracks"
			}
			sb.WriteString(fmt.Sprintf("  • %s (%d %s)\n", c.Name, len(c.TrackIDs), trackWord))
		}
	}

	return sb.String()
}
