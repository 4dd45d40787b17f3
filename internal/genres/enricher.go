// Package genres fills in missing artist genres from a Postgres cache and Last.fm.
package genres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/myvibelytics/internal/db"
	"github.com/justestif/myvibelytics/internal/lastfm"
	"github.com/justestif/myvibelytics/internal/spotify"
)

// CacheTTL is the duration after which cached genres are considered stale.
const CacheTTL = 30 * 24 * time.Hour // 30 days

// DefaultConcurrency is the number of concurrent Last.fm lookups.
const DefaultConcurrency = 5

// MaxGenresPerArtist caps the tags kept per artist.
const MaxGenresPerArtist = 5

// TagFetcher abstracts the Last.fm client for testing.
type TagFetcher interface {
	ArtistTags(ctx context.Context, artist string) ([]lastfm.Tag, error)
}

// Cache persists genres per artist.
type Cache interface {
	GetForArtists(ctx context.Context, artistIDs []string) (map[string][]db.ArtistGenre, error)
	UpsertBatch(ctx context.Context, genres []db.ArtistGenre) error
}

// Enricher fills in genres for artists Spotify returns without any.
type Enricher struct {
	fetcher     TagFetcher
	cache       Cache
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache sets the genre cache.
func WithCache(c Cache) Option {
	return func(e *Enricher) {
		e.cache = c
	}
}

// WithConcurrency sets the number of concurrent tag fetch operations.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Enricher) {
		e.logger = logger
	}
}

// WithNowFunc overrides the clock used for cache freshness.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Enricher) {
		e.now = now
	}
}

// NewEnricher creates an Enricher. A nil fetcher disables Last.fm lookups.
func NewEnricher(fetcher TagFetcher, opts ...Option) *Enricher {
	e := &Enricher{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of artists with genres filled in where Spotify had none.
// Lookup failures leave an artist's genres empty; Enrich never fails.
func (e *Enricher) Enrich(ctx context.Context, artists []spotify.Artist) []spotify.Artist {
	out := make([]spotify.Artist, len(artists))
	copy(out, artists)

	var missing []int
	for i, a := range out {
		if len(a.Genres) == 0 && a.ID != "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return out
	}

	missing = e.fromCache(ctx, out, missing)
	if len(missing) == 0 || e.fetcher == nil {
		return out
	}

	e.fromLastFM(ctx, out, missing)
	return out
}

// fromCache fills fresh cached genres and returns the indexes still missing.
func (e *Enricher) fromCache(ctx context.Context, artists []spotify.Artist, missing []int) []int {
	if e.cache == nil {
		return missing
	}

	ids := make([]string, len(missing))
	for i, idx := range missing {
		ids[i] = artists[idx].ID
	}

	cached, err := e.cache.GetForArtists(ctx, ids)
	if err != nil {
		e.logger.Warn("reading genre cache", zap.Error(err))
		return missing
	}

	staleThreshold := e.now().Add(-CacheTTL)
	var still []int
	for _, idx := range missing {
		rows := cached[artists[idx].ID]
		if len(rows) == 0 || isStale(rows, staleThreshold) {
			still = append(still, idx)
			continue
		}
		artists[idx].Genres = genreNames(rows)
	}

	e.logger.Debug("genre cache lookup",
		zap.Int("hits", len(missing)-len(still)),
		zap.Int("misses", len(still)))
	return still
}

// fromLastFM fetches artist tags concurrently and persists them.
func (e *Enricher) fromLastFM(ctx context.Context, artists []spotify.Artist, missing []int) {
	fetched := make([][]string, len(missing))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, idx := range missing {
		name := artists[idx].Name
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			tags, err := e.fetcher.ArtistTags(ctx, name)
			if err != nil {
				e.logger.Debug("fetching artist tags",
					zap.String("artist", name),
					zap.Error(err))
				return nil
			}
			fetched[i] = lastfm.TagNames(tags, MaxGenresPerArtist)
			return nil
		})
	}
	_ = g.Wait()

	now := e.now()
	var rows []db.ArtistGenre
	for i, idx := range missing {
		names := fetched[i]
		if len(names) == 0 {
			continue
		}
		artists[idx].Genres = names
		for rank, name := range names {
			rows = append(rows, db.ArtistGenre{
				ArtistID:  artists[idx].ID,
				Genre:     name,
				Weight:    len(names) - rank,
				FetchedAt: now,
			})
		}
	}

	if e.cache != nil && len(rows) > 0 {
		if err := e.cache.UpsertBatch(ctx, rows); err != nil {
			e.logger.Warn("writing genre cache", zap.Error(err))
		}
	}
}

func isStale(rows []db.ArtistGenre, threshold time.Time) bool {
	for _, r := range rows {
		if r.FetchedAt.Before(threshold) {
			return true
		}
	}
	return false
}

// genreNames returns cached genre names, heaviest first.
func genreNames(rows []db.ArtistGenre) []string {
	names := make([]string, 0, min(len(rows), MaxGenresPerArtist))
	for _, r := range rows {
		if len(names) == MaxGenresPerArtist {
			break
		}
		names = append(names, r.Genre)
	}
	return names
}
