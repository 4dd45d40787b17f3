package playlist

import "github.com/justestif/myvibelytics/internal/spotify"

const (
	genrePoolSize  = 5
	maxArtistSeeds = 2
	maxGenreSeeds  = 2
)

// genrePool returns the first n distinct genres across artists, in artist order.
func genrePool(artists []spotify.Artist, n int) []string {
	seen := make(map[string]bool)
	var pool []string
	for _, a := range artists {
		for _, g := range a.Genres {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			pool = append(pool, g)
			if len(pool) == n {
				return pool
			}
		}
	}
	return pool
}

// seedMaterial holds the IDs the batch loop rotates through.
type seedMaterial struct {
	artistIDs []string
	trackIDs  []string
	genres    []string
}

func newSeedMaterial(artists []spotify.Artist, tracks []spotify.Track) seedMaterial {
	m := seedMaterial{genres: genrePool(artists, genrePoolSize)}
	for _, a := range artists {
		if a.ID != "" {
			m.artistIDs = append(m.artistIDs, a.ID)
		}
	}
	for _, t := range tracks {
		if t.ID != "" {
			m.trackIDs = append(m.trackIDs, t.ID)
		}
	}
	return m
}

func (m seedMaterial) empty() bool {
	return len(m.artistIDs) == 0 && len(m.trackIDs) == 0
}

// forBatch picks seeds by batch index: artists, then a track, then genres.
// An empty category falls back to the first artist, or the first track
// when there are no artists.
func (m seedMaterial) forBatch(i int) spotify.Seeds {
	var s spotify.Seeds
	switch i % 3 {
	case 0:
		s.ArtistIDs = rotate(m.artistIDs, i, maxArtistSeeds)
	case 1:
		s.TrackIDs = rotate(m.trackIDs, i, 1)
	case 2:
		s.Genres = rotate(m.genres, i, maxGenreSeeds)
	}

	if s.Len() == 0 {
		switch {
		case len(m.artistIDs) > 0:
			s.ArtistIDs = m.artistIDs[:1]
		case len(m.trackIDs) > 0:
			s.TrackIDs = m.trackIDs[:1]
		}
	}
	return s
}

// rotate returns up to n items starting at offset, wrapping around.
func rotate(items []string, offset, n int) []string {
	if len(items) == 0 {
		return nil
	}
	n = min(n, len(items))
	out := make([]string, n)
	for k := range n {
		out[k] = items[(offset+k)%len(items)]
	}
	return out
}
