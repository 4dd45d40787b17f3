package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/config"
	"github.com/justestif/myvibelytics/internal/db"
	"github.com/justestif/myvibelytics/internal/generate"
	"github.com/justestif/myvibelytics/internal/genres"
	"github.com/justestif/myvibelytics/internal/lastfm"
	"github.com/justestif/myvibelytics/internal/listening"
	"github.com/justestif/myvibelytics/internal/metrics"
	"github.com/justestif/myvibelytics/internal/playlist"
)

// app holds the wired services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *db.DB
	registry  *prometheus.Registry
	tokens    *auth.Manager
	generator *generate.Service
}

// newApp connects to Postgres when configured and wires the services.
// Without a database, tokens live in fallback. extra is appended to the
// playlist builder options.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, fallback auth.Store, extra ...playlist.Option) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mt := metrics.New(a.registry)

	store := fallback
	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.db = database
		store = auth.NewDBStore(database.Users())
	}

	a.tokens = auth.NewManager(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, store,
		auth.WithTokenURL(cfg.Spotify.TokenURL),
		auth.WithRefreshBuffer(cfg.Generator.RefreshBuffer),
		auth.WithLogger(logger.Named("auth")),
		auth.WithMetrics(mt),
	)

	builderOpts := []playlist.Option{
		playlist.WithLogger(logger.Named("playlist")),
		playlist.WithMetrics(mt),
		playlist.WithOrphanCleanup(cfg.Generator.OrphanCleanup),
	}
	if bps := cfg.Generator.BatchesPerSecond; bps > 0 {
		builderOpts = append(builderOpts, playlist.WithRateLimiter(rate.NewLimiter(rate.Limit(bps), 1)))
	}
	builderOpts = append(builderOpts, extra...)

	snapshots := listening.New(
		listening.WithTTL(cfg.Generator.SnapshotTTL),
		listening.WithLogger(logger.Named("listening")),
	)

	genOpts := []generate.Option{generate.WithLogger(logger.Named("generate"))}
	if a.db != nil {
		genOpts = append(genOpts,
			generate.WithHistory(a.db.Playlists()),
			generate.WithFilterStore(a.db.TrackFilters()))
	}
	if enricher := a.enricher(); enricher != nil {
		genOpts = append(genOpts, generate.WithEnricher(enricher))
	}

	a.generator = generate.New(a.tokens, playlist.NewBuilder(nil, builderOpts...), snapshots, genOpts...)
	return a, nil
}

// enricher returns nil when no Last.fm key is configured.
func (a *app) enricher() *genres.Enricher {
	lfmCfg := &lastfm.Config{APIKey: a.cfg.LastFM.APIKey}
	if err := lfmCfg.Validate(); err != nil {
		a.logger.Info("genre enrichment disabled", zap.Error(err))
		return nil
	}

	opts := []genres.Option{
		genres.WithConcurrency(a.cfg.Generator.EnrichWorkers),
		genres.WithLogger(a.logger.Named("genres")),
	}
	if a.db != nil {
		opts = append(opts, genres.WithCache(a.db.ArtistGenres()))
	}
	return genres.NewEnricher(lastfm.NewClient(lfmCfg), opts...)
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
