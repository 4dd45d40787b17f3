// Package listening fetches and caches a user's listening snapshot from Spotify.
package listening

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/myvibelytics/internal/analytics"
	"github.com/justestif/myvibelytics/internal/spotify"
)

// Defaults for snapshot fetching and caching.
const (
	DefaultTTL       = 10 * time.Minute
	DefaultCacheSize = 1024
	DefaultLimit     = 50
)

// Source is the subset of the Spotify client a snapshot is fetched from.
type Source interface {
	TopTracks(ctx context.Context, rng spotify.Range, limit int) ([]spotify.Track, error)
	TopArtists(ctx context.Context, rng spotify.Range, limit int) ([]spotify.Artist, error)
	RecentlyPlayed(ctx context.Context) ([]spotify.Track, error)
}

// ProfileSource also provides audio features.
type ProfileSource interface {
	Source
	AudioFeatures(ctx context.Context, trackIDs []string) ([]spotify.AudioFeatures, error)
}

// Snapshot is a user's listening history at a point in time.
type Snapshot struct {
	TopTracks      []spotify.Track
	TopArtists     []spotify.Artist
	RecentlyPlayed []spotify.Track
	FetchedAt      time.Time
}

// Service fetches snapshots and caches them per user.
type Service struct {
	cache  *expirable.LRU[string, *Snapshot]
	rng    spotify.Range
	limit  int
	ttl    time.Duration
	size   int
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long a snapshot is served from cache.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithCacheSize sets the maximum number of cached users.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.size = n
		}
	}
}

// WithRange sets the top-items window.
func WithRange(rng spotify.Range) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNowFunc overrides the clock used for FetchedAt.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a listening service.
func New(opts ...Option) *Service {
	s := &Service{
		rng:    spotify.MediumTerm,
		limit:  DefaultLimit,
		ttl:    DefaultTTL,
		size:   DefaultCacheSize,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = expirable.NewLRU[string, *Snapshot](s.size, nil, s.ttl)
	return s
}

// Snapshot returns the user's cached snapshot or fetches a new one.
// Top tracks, top artists and recent plays are fetched in parallel.
func (s *Service) Snapshot(ctx context.Context, userID string, src Source) (*Snapshot, error) {
	if snap, ok := s.cache.Get(userID); ok {
		return snap, nil
	}

	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tracks, err := src.TopTracks(gctx, s.rng, s.limit)
		if err != nil {
			return err
		}
		snap.TopTracks = tracks
		return nil
	})
	g.Go(func() error {
		artists, err := src.TopArtists(gctx, s.rng, s.limit)
		if err != nil {
			return err
		}
		snap.TopArtists = artists
		return nil
	})
	g.Go(func() error {
		recent, err := src.RecentlyPlayed(gctx)
		if err != nil {
			return err
		}
		snap.RecentlyPlayed = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching listening snapshot: %w", err)
	}

	snap.FetchedAt = s.now()
	s.cache.Add(userID, snap)
	s.logger.Debug("listening snapshot fetched",
		zap.String("user_id", userID),
		zap.Int("top_tracks", len(snap.TopTracks)),
		zap.Int("top_artists", len(snap.TopArtists)),
		zap.Int("recently_played", len(snap.RecentlyPlayed)))

	return snap, nil
}

// Invalidate drops the user's cached snapshot.
func (s *Service) Invalidate(userID string) {
	s.cache.Remove(userID)
}

// Profile builds analytics from the user's snapshot and the top tracks' audio features.
// Audio features are optional; a failed lookup yields a profile without mood data.
func (s *Service) Profile(ctx context.Context, userID string, src ProfileSource) (*analytics.Profile, error) {
	snap, err := s.Snapshot(ctx, userID, src)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(snap.TopTracks))
	for i, t := range snap.TopTracks {
		ids[i] = t.ID
	}

	features, err := src.AudioFeatures(ctx, ids)
	if err != nil {
		s.logger.Warn("audio features unavailable",
			zap.String("user_id", userID),
			zap.Error(err))
		features = nil
	}

	return analytics.BuildProfile(snap.TopTracks, snap.TopArtists, features), nil
}
