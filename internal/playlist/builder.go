// Package playlist builds a discovery playlist from batched recommendation requests.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/myvibelytics/internal/metrics"
	"github.com/justestif/myvibelytics/internal/spotify"
	"github.com/justestif/myvibelytics/internal/trackset"
)

const (
	// TargetCount is the number of tracks a playlist aims for.
	TargetCount = 100

	// MaxBatches is the recommendation request budget per build.
	MaxBatches = 15

	// MaxBatchLimit caps the tracks requested per batch.
	MaxBatchLimit = 20

	namePrefix  = "My Vibe Mix: "
	description = "Fresh discoveries picked from your listening by MyVibeLytics"
)

// Provider is the subset of the Spotify API a build needs.
type Provider interface {
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*spotify.PlaylistRef, error)
	Recommendations(ctx context.Context, q spotify.Query) ([]spotify.Track, error)
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
	UnfollowPlaylist(ctx context.Context, playlistID string) error
}

// ProviderFunc returns a Provider authorized with accessToken.
type ProviderFunc func(ctx context.Context, accessToken string) Provider

// BatchStatus is the outcome of one recommendation batch.
type BatchStatus string

// Batch statuses.
const (
	BatchOK      BatchStatus = "ok"
	BatchSkipped BatchStatus = "skipped"
)

// BatchResult records one iteration of the recommendation loop.
type BatchResult struct {
	Index    int
	Status   BatchStatus
	Seeds    spotify.Seeds
	Preset   string
	Limit    int
	Returned int
	Accepted int
	Reason   string
	Err      error
}

// Excluder reports tracks a listener should not be offered again.
type Excluder interface {
	Has(id string) bool
}

// Request is the input to Build. AccessToken must already be valid.
// Exclude is optional.
type Request struct {
	AccessToken    string
	UserID         string
	TopTracks      []spotify.Track
	TopArtists     []spotify.Artist
	RecentlyPlayed []spotify.Track
	Exclude        Excluder
}

// Result is a populated playlist and how it was assembled.
type Result struct {
	Playlist  spotify.PlaylistRef
	Tracks    []spotify.Track
	Batches   []BatchResult
	Collected int
}

// Skipped returns the number of skipped batches.
func (r *Result) Skipped() int {
	n := 0
	for _, b := range r.Batches {
		if b.Status == BatchSkipped {
			n++
		}
	}
	return n
}

// ProgressFunc is called after each batch with the running collected count.
type ProgressFunc func(batch BatchResult, collected int)

// Builder creates and populates discovery playlists.
// A Builder is safe for concurrent use; each Build owns its own state.
type Builder struct {
	newProvider   ProviderFunc
	logger        *zap.Logger
	metrics       *metrics.Metrics
	limiter       *rate.Limiter
	progress      ProgressFunc
	orphanCleanup bool
	now           func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithRateLimiter paces recommendation requests.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(b *Builder) {
		b.limiter = l
	}
}

// WithProgress registers a per-batch callback.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) {
		b.progress = fn
	}
}

// WithOrphanCleanup unfollows the created playlist when it cannot be filled.
func WithOrphanCleanup(enabled bool) Option {
	return func(b *Builder) {
		b.orphanCleanup = enabled
	}
}

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) {
		b.rng = r
	}
}

// WithNowFunc overrides the clock used for the playlist name.
func WithNowFunc(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder. A nil newProvider uses the Spotify Web API.
func NewBuilder(newProvider ProviderFunc, opts ...Option) *Builder {
	if newProvider == nil {
		newProvider = func(ctx context.Context, accessToken string) Provider {
			return spotify.NewFromToken(ctx, accessToken)
		}
	}
	b := &Builder{
		newProvider: newProvider,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the playlist name for t, e.g. "My Vibe Mix: October 2026".
func Name(t time.Time) string {
	return namePrefix + t.Format("January 2006")
}

// Build creates a playlist, collects up to TargetCount novel recommendations
// and adds them in shuffled order.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	outcome := metrics.BuildOtherError
	collected := 0
	defer func() {
		b.metrics.BuildFinished(outcome, time.Since(start).Seconds(), collected)
	}()

	seeds := newSeedMaterial(req.TopArtists, req.TopTracks)
	if seeds.empty() {
		return nil, ErrNoSeedMaterial
	}

	provider := b.newProvider(ctx, req.AccessToken)
	log := b.logger.With(zap.String("user_id", req.UserID))

	name := Name(b.now())
	ref, err := provider.CreatePlaylist(ctx, req.UserID, name, description, false)
	if err != nil {
		outcome = metrics.BuildCreateFailed
		log.Warn("playlist create failed", zap.Error(err))
		return nil, &CreateError{Message: spotify.ErrorMessage(err), Err: err}
	}
	if ref.Name == "" {
		ref.Name = name
	}
	log = log.With(zap.String("playlist_id", ref.ID))

	tracks, batches, err := b.collect(ctx, provider, req, seeds, log)
	collected = len(tracks)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.BuildCanceled
		}
		log.Warn("collecting recommendations", zap.Error(err))
		b.cleanup(ctx, provider, ref.ID, log)
		return nil, fmt.Errorf("collecting recommendations: %w", err)
	}

	if len(tracks) == 0 {
		outcome = metrics.BuildNoRecommendations
		log.Warn("no recommendations collected", zap.Int("batches", len(batches)))
		b.cleanup(ctx, provider, ref.ID, log)
		return nil, ErrNoRecommendations
	}

	b.shuffle(tracks)
	tracks = tracks[:min(TargetCount, len(tracks))]

	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	if err := provider.AddTracks(ctx, ref.ID, ids); err != nil {
		outcome = metrics.BuildPopulateFailed
		log.Warn("playlist populate failed", zap.Error(err))
		return nil, &PopulateError{
			PlaylistID: ref.ID,
			Message:    spotify.ErrorMessage(err),
			CleanedUp:  b.cleanup(ctx, provider, ref.ID, log),
			Err:        err,
		}
	}

	outcome = metrics.BuildSuccess
	log.Info("playlist built",
		zap.Int("tracks", len(tracks)),
		zap.Int("batches", len(batches)))

	return &Result{
		Playlist:  *ref,
		Tracks:    tracks,
		Batches:   batches,
		Collected: collected,
	}, nil
}

// collect runs the batch loop and returns the novel tracks in arrival order.
func (b *Builder) collect(ctx context.Context, provider Provider, req Request, seeds seedMaterial, log *zap.Logger) ([]spotify.Track, []BatchResult, error) {
	known := trackset.New(len(req.TopTracks) + len(req.RecentlyPlayed))
	for _, t := range req.TopTracks {
		known.Add(t.ID)
	}
	for _, t := range req.RecentlyPlayed {
		known.Add(t.ID)
	}
	seen := trackset.New(TargetCount * 2)

	var (
		collected []spotify.Track
		batches   []BatchResult
	)
	for i := 0; i < MaxBatches && len(collected) < TargetCount; i++ {
		if err := ctx.Err(); err != nil {
			return collected, batches, err
		}
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return collected, batches, err
			}
		}

		preset := presetFor(i)
		batch := BatchResult{
			Index:  i,
			Seeds:  seeds.forBatch(i),
			Preset: preset.Name,
			Limit:  batchLimit(TargetCount-len(collected), MaxBatches-i),
		}

		recs, err := provider.Recommendations(ctx, spotify.Query{
			Seeds:  batch.Seeds,
			Preset: preset,
			Limit:  batch.Limit,
		})
		if err != nil {
			batch.Status = BatchSkipped
			batch.Reason = spotify.ErrorMessage(err)
			batch.Err = err
			log.Warn("recommendation batch skipped",
				zap.Int("batch", i),
				zap.String("preset", preset.Name),
				zap.Error(err))
		} else {
			batch.Status = BatchOK
			batch.Returned = len(recs)
			for _, t := range recs {
				if t.ID == "" || known.Has(t.ID) || excluded(req.Exclude, t.ID) || !seen.Add(t.ID) {
					continue
				}
				collected = append(collected, t)
				batch.Accepted++
			}
			log.Debug("recommendation batch",
				zap.Int("batch", i),
				zap.String("preset", preset.Name),
				zap.Int("returned", batch.Returned),
				zap.Int("accepted", batch.Accepted))
		}

		b.metrics.BatchStatus(string(batch.Status))
		batches = append(batches, batch)
		if b.progress != nil {
			b.progress(batch, len(collected))
		}
	}

	return collected, batches, nil
}

func excluded(ex Excluder, id string) bool {
	return ex != nil && ex.Has(id)
}

// batchLimit is min(MaxBatchLimit, ceil(remaining/batchesLeft)).
func batchLimit(remaining, batchesLeft int) int {
	if batchesLeft < 1 {
		batchesLeft = 1
	}
	return min(MaxBatchLimit, (remaining+batchesLeft-1)/batchesLeft)
}

// shuffle applies a uniform Fisher-Yates shuffle.
func (b *Builder) shuffle(tracks []spotify.Track) {
	swap := func(i, j int) { tracks[i], tracks[j] = tracks[j], tracks[i] }
	if b.rng == nil {
		rand.Shuffle(len(tracks), swap)
		return
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	b.rng.Shuffle(len(tracks), swap)
}

// cleanup unfollows an unfilled playlist when orphan cleanup is enabled.
// It runs even after ctx is canceled.
func (b *Builder) cleanup(ctx context.Context, provider Provider, playlistID string, log *zap.Logger) bool {
	if !b.orphanCleanup {
		return false
	}
	if err := provider.UnfollowPlaylist(context.WithoutCancel(ctx), playlistID); err != nil {
		log.Warn("removing unfilled playlist", zap.Error(err))
		return false
	}
	log.Info("removed unfilled playlist")
	return true
}
