// Package generate wires token refresh, listening history and the playlist builder
// into a single "generate a playlist for this user" operation.
package generate

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/analytics"
	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/db"
	"github.com/justestif/myvibelytics/internal/listening"
	"github.com/justestif/myvibelytics/internal/playlist"
	"github.com/justestif/myvibelytics/internal/spotify"
	"github.com/justestif/myvibelytics/internal/trackset"
)

const (
	// DefaultHistoryLimit is how many past playlists History returns.
	DefaultHistoryLimit = 20

	// filterCacheSize bounds how many users' track filters stay in memory.
	filterCacheSize = 1024
)

// ErrSpotifyUnauthorized means Spotify rejected a token the store considered
// valid, typically because the user revoked access.
var ErrSpotifyUnauthorized = errors.New("spotify rejected the access token, reconnect required")

// Tokens hands out valid access tokens.
type Tokens interface {
	GetValidToken(ctx context.Context, userID string, state *auth.TokenState) (string, error)
	Store() auth.Store
}

// Builder builds a playlist from a listening snapshot.
type Builder interface {
	Build(ctx context.Context, req playlist.Request) (*playlist.Result, error)
}

// Enricher fills in missing artist genres.
type Enricher interface {
	Enrich(ctx context.Context, artists []spotify.Artist) []spotify.Artist
}

// History records generated playlists.
type History interface {
	Create(ctx context.Context, pl *db.GeneratedPlaylist, tracks []db.Track) error
	ListForUser(ctx context.Context, userID string, limit int) ([]db.GeneratedPlaylist, error)
	CountForUser(ctx context.Context, userID string) (int, error)
}

// FilterStore persists encoded delivered-track filters.
// Load returns db.ErrNotFound for users without one.
type FilterStore interface {
	Load(ctx context.Context, userID string) ([]byte, error)
	Save(ctx context.Context, userID string, data []byte) error
}

// ClientFunc returns a Spotify client authorized with accessToken.
type ClientFunc func(ctx context.Context, accessToken string) listening.ProfileSource

// Service generates playlists and profiles for connected users.
type Service struct {
	tokens    Tokens
	builder   Builder
	snapshots *listening.Service
	enricher  Enricher
	history   History
	filters   FilterStore
	newClient ClientFunc
	logger    *zap.Logger

	delivered *lru.Cache[string, *trackset.Filter]
}

// Option configures a Service.
type Option func(*Service)

// WithEnricher sets the genre enricher.
func WithEnricher(e Enricher) Option {
	return func(s *Service) {
		s.enricher = e
	}
}

// WithHistory sets where generated playlists are recorded.
func WithHistory(h History) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithFilterStore persists each user's delivered-track filter so
// playlists stay fresh across restarts.
func WithFilterStore(fs FilterStore) Option {
	return func(s *Service) {
		s.filters = fs
	}
}

// WithClientFunc overrides how Spotify clients are created.
func WithClientFunc(fn ClientFunc) Option {
	return func(s *Service) {
		s.newClient = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a generate service.
func New(tokens Tokens, builder Builder, snapshots *listening.Service, opts ...Option) *Service {
	s := &Service{
		tokens:    tokens,
		builder:   builder,
		snapshots: snapshots,
		newClient: func(ctx context.Context, accessToken string) listening.ProfileSource {
			return spotify.NewFromToken(ctx, accessToken)
		},
		logger: zap.NewNop(),
	}
	s.delivered, _ = lru.New[string, *trackset.Filter](filterCacheSize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds a playlist for userID and records it in history.
// Tracks from the user's earlier playlists are not offered again.
// Token, snapshot and build errors are returned unchanged, except that a
// 401 from Spotify is also marked with ErrSpotifyUnauthorized.
func (s *Service) Generate(ctx context.Context, userID string) (*playlist.Result, error) {
	token, err := s.token(ctx, userID)
	if err != nil {
		return nil, err
	}
	client := s.newClient(ctx, token)

	snap, err := s.snapshots.Snapshot(ctx, userID, client)
	if err != nil {
		return nil, unauthorized(err)
	}

	delivered, err := s.deliveredFilter(ctx, userID)
	if err != nil {
		return nil, err
	}

	artists := snap.TopArtists
	if s.enricher != nil {
		artists = s.enricher.Enrich(ctx, artists)
	}

	result, err := s.builder.Build(ctx, playlist.Request{
		AccessToken:    token,
		UserID:         userID,
		TopTracks:      snap.TopTracks,
		TopArtists:     artists,
		RecentlyPlayed: snap.RecentlyPlayed,
		Exclude:        delivered,
	})
	if err != nil {
		return nil, unauthorized(err)
	}

	s.record(ctx, userID, result)
	s.remember(ctx, userID, delivered, result)
	s.snapshots.Invalidate(userID)
	return result, nil
}

// Profile returns listening analytics for userID.
func (s *Service) Profile(ctx context.Context, userID string) (*analytics.Profile, error) {
	token, err := s.token(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.snapshots.Profile(ctx, userID, s.newClient(ctx, token))
	if err != nil {
		return nil, unauthorized(err)
	}
	return profile, nil
}

// History returns the user's generated playlists, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]db.GeneratedPlaylist, error) {
	if s.history == nil {
		return nil, nil
	}
	playlists, err := s.history.ListForUser(ctx, userID, DefaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("listing playlist history: %w", err)
	}
	return playlists, nil
}

// PlaylistCount returns how many playlists userID has generated in total.
func (s *Service) PlaylistCount(ctx context.Context, userID string) (int, error) {
	if s.history == nil {
		return 0, nil
	}
	n, err := s.history.CountForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting playlist history: %w", err)
	}
	return n, nil
}

func unauthorized(err error) error {
	if spotify.IsUnauthorized(err) {
		return fmt.Errorf("%w: %w", ErrSpotifyUnauthorized, err)
	}
	return err
}

func (s *Service) token(ctx context.Context, userID string) (string, error) {
	state, err := s.tokens.Store().Read(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("reading token state: %w", err)
	}
	return s.tokens.GetValidToken(ctx, userID, state)
}

// record stores the result in history. The playlist already exists on
// Spotify, so a failure here is logged rather than returned.
func (s *Service) record(ctx context.Context, userID string, result *playlist.Result) {
	if s.history == nil {
		return
	}

	tracks := make([]db.Track, len(result.Tracks))
	for i, t := range result.Tracks {
		tracks[i] = db.Track{
			ID:     t.ID,
			Name:   t.Name,
			Artist: t.ArtistNames(),
			URI:    t.URI,
		}
	}

	pl := &db.GeneratedPlaylist{
		UserID:            userID,
		SpotifyPlaylistID: result.Playlist.ID,
		Name:              result.Playlist.Name,
		URL:               result.Playlist.URL,
		TrackCount:        len(result.Tracks),
		BatchesIssued:     len(result.Batches),
		BatchesSkipped:    result.Skipped(),
	}
	if err := s.history.Create(ctx, pl, tracks); err != nil {
		s.logger.Error("recording generated playlist",
			zap.String("user_id", userID),
			zap.String("playlist_id", result.Playlist.ID),
			zap.Error(err))
	}
}

// deliveredFilter returns the user's filter of previously delivered tracks,
// loading it from the filter store on first use.
func (s *Service) deliveredFilter(ctx context.Context, userID string) (*trackset.Filter, error) {
	if f, ok := s.delivered.Get(userID); ok {
		return f, nil
	}

	f := trackset.NewFilter(trackset.DefaultFilterCapacity)
	if s.filters != nil {
		data, err := s.filters.Load(ctx, userID)
		switch {
		case errors.Is(err, db.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("loading track filter: %w", err)
		default:
			loaded, err := trackset.UnmarshalFilter(data)
			if err != nil {
				s.logger.Warn("discarding unreadable track filter",
					zap.String("user_id", userID),
					zap.Error(err))
			} else {
				f = loaded
			}
		}
	}

	if existing, ok, _ := s.delivered.PeekOrAdd(userID, f); ok {
		return existing, nil
	}
	return f, nil
}

// remember adds the result's tracks to the user's filter and persists it.
// Like record, failures are logged only.
func (s *Service) remember(ctx context.Context, userID string, f *trackset.Filter, result *playlist.Result) {
	ids := make([]string, len(result.Tracks))
	for i, t := range result.Tracks {
		ids[i] = t.ID
	}
	f.AddAll(ids)

	if s.filters == nil {
		return
	}
	data, err := f.MarshalBinary()
	if err == nil {
		err = s.filters.Save(ctx, userID, data)
	}
	if err != nil {
		s.logger.Error("saving track filter",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	s.logger.Debug("track filter saved",
		zap.String("user_id", userID),
		zap.Uint32("tracks", f.Count()))
}
