package analytics

import (
	"cmp"
	"slices"

	"github.com/justestif/myvibelytics/internal/spotify"
)

// GenreShare is one genre's weight across a set of artists.
type GenreShare struct {
	Genre string
	Count int
	Share float64
}

// GenreBreakdown returns the n most common genres across artists.
// Share is relative to all genre mentions, so shares of a truncated list
// may sum to less than 1. Ties are ordered by genre name.
func GenreBreakdown(artists []spotify.Artist, n int) []GenreShare {
	counts := make(map[string]int)
	total := 0
	for _, a := range artists {
		for _, g := range a.Genres {
			if g == "" {
				continue
			}
			counts[g]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	shares := make([]GenreShare, 0, len(counts))
	for g, c := range counts {
		shares = append(shares, GenreShare{
			Genre: g,
			Count: c,
			Share: float64(c) / float64(total),
		})
	}
	slices.SortFunc(shares, func(a, b GenreShare) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Genre, b.Genre)
	})

	if n > 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

// DistinctGenres counts unique genres across artists.
func DistinctGenres(artists []spotify.Artist) int {
	seen := make(map[string]struct{})
	for _, a := range artists {
		for _, g := range a.Genres {
			if g != "" {
				seen[g] = struct{}{}
			}
		}
	}
	return len(seen)
}
