package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	spotifyapi "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/justestif/myvibelytics/internal/metrics"
	"github.com/justestif/myvibelytics/internal/spotify"
)

var buildTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type createCall struct {
	userID string
	name   string
	public bool
}

// fakeProvider records calls and answers recommendations through recs.
type fakeProvider struct {
	mu sync.Mutex

	createErr   error
	addErr      error
	unfollowErr error
	recs        func(batch int, q spotify.Query) ([]spotify.Track, error)

	created    []createCall
	queries    []spotify.Query
	added      [][]string
	unfollowed []string
}

func (f *fakeProvider) CreatePlaylist(_ context.Context, userID, name, _ string, public bool) (*spotify.PlaylistRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, createCall{userID: userID, name: name, public: public})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &spotify.PlaylistRef{ID: "p1", Name: name, URL: "https://open.spotify.com/playlist/p1"}, nil
}

func (f *fakeProvider) Recommendations(_ context.Context, q spotify.Query) ([]spotify.Track, error) {
	f.mu.Lock()
	batch := len(f.queries)
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.recs == nil {
		return nil, nil
	}
	return f.recs(batch, q)
}

func (f *fakeProvider) AddTracks(_ context.Context, _ string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, append([]string(nil), trackIDs...))
	return f.addErr
}

func (f *fakeProvider) UnfollowPlaylist(_ context.Context, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unfollowed = append(f.unfollowed, playlistID)
	return f.unfollowErr
}

func (f *fakeProvider) factory() ProviderFunc {
	return func(context.Context, string) Provider { return f }
}

func track(id string) spotify.Track {
	return spotify.Track{ID: id, Name: "Song " + id, URI: "spotify:track:" + id, Artists: []string{"Artist"}}
}

// trackRange returns tracks prefix+from .. prefix+to inclusive.
func trackRange(prefix string, from, to int) []spotify.Track {
	var out []spotify.Track
	for i := from; i <= to; i++ {
		out = append(out, track(fmt.Sprintf("%s%d", prefix, i)))
	}
	return out
}

func artists(n, genresEach int) []spotify.Artist {
	out := make([]spotify.Artist, n)
	g := 1
	for i := range out {
		out[i] = spotify.Artist{ID: fmt.Sprintf("a%d", i+1), Name: fmt.Sprintf("Artist %d", i+1)}
		for range genresEach {
			out[i].Genres = append(out[i].Genres, fmt.Sprintf("g%d", g))
			g++
		}
	}
	return out
}

// freshRecs returns n never-seen tracks per batch.
func freshRecs(n int) func(int, spotify.Query) ([]spotify.Track, error) {
	return func(batch int, _ spotify.Query) ([]spotify.Track, error) {
		return trackRange(fmt.Sprintf("fresh%d-", batch), 1, n), nil
	}
}

// exampleRequest is 50 top tracks, 10 artists with 2 genres each and
// 20 recent plays overlapping t40..t50.
func exampleRequest() Request {
	recent := append(trackRange("t", 40, 50), trackRange("r", 1, 9)...)
	return Request{
		AccessToken:    "token",
		UserID:         "u1",
		TopTracks:      trackRange("t", 1, 50),
		TopArtists:     artists(10, 2),
		RecentlyPlayed: recent,
	}
}

func newTestBuilder(f *fakeProvider, opts ...Option) *Builder {
	base := []Option{
		WithNowFunc(func() time.Time { return buildTime }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	return NewBuilder(f.factory(), append(base, opts...)...)
}

func TestBuild_ExampleScenario(t *testing.T) {
	f := &fakeProvider{recs: freshRecs(20)}
	req := exampleRequest()

	result, err := newTestBuilder(f).Build(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, f.queries, 5, "exactly five batches should be issued")
	require.Len(t, f.added, 1)
	assert.Len(t, f.added[0], TargetCount)
	assert.Len(t, result.Tracks, TargetCount)

	excluded := make(map[string]bool)
	for _, tr := range req.TopTracks {
		excluded[tr.URI] = true
	}
	for _, tr := range req.RecentlyPlayed {
		excluded[tr.URI] = true
	}

	uris := make(map[string]bool)
	for _, tr := range result.Tracks {
		assert.False(t, excluded[tr.URI], "known track %s in playlist", tr.URI)
		assert.False(t, uris[tr.URI], "duplicate URI %s", tr.URI)
		uris[tr.URI] = true
	}
	assert.Len(t, uris, TargetCount)

	assert.Equal(t, "p1", result.Playlist.ID)
	assert.Equal(t, "https://open.spotify.com/playlist/p1", result.Playlist.URL)
	assert.Equal(t, "My Vibe Mix: October 2026", result.Playlist.Name)
	require.Len(t, f.created, 1)
	assert.Equal(t, "u1", f.created[0].userID)
	assert.False(t, f.created[0].public)
}

func TestBuild_NoveltyFilter(t *testing.T) {
	req := exampleRequest()
	f := &fakeProvider{
		recs: func(batch int, _ spotify.Query) ([]spotify.Track, error) {
			// Known tracks, an in-batch duplicate and a cross-batch duplicate.
			return []spotify.Track{
				track("t1"),
				track("t45"),
				track("r3"),
				track("shared"),
				track(fmt.Sprintf("new%d", batch)),
				track(fmt.Sprintf("new%d", batch)),
				{Name: "no id"},
			}, nil
		},
	}

	result, err := newTestBuilder(f).Build(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, f.queries, MaxBatches, "never reaching the target uses the full budget")
	assert.Equal(t, 1+MaxBatches, result.Collected)

	seen := make(map[string]bool)
	for _, tr := range result.Tracks {
		assert.NotContains(t, []string{"t1", "t45", "r3"}, tr.ID)
		assert.False(t, seen[tr.ID], "duplicate %s", tr.ID)
		seen[tr.ID] = true
	}

	assert.Equal(t, 2, result.Batches[0].Accepted)
	assert.Equal(t, 7, result.Batches[0].Returned)
	for _, b := range result.Batches[1:] {
		assert.Equal(t, 1, b.Accepted, "batch %d", b.Index)
	}
}

func TestBuild_CountBound(t *testing.T) {
	f := &fakeProvider{recs: freshRecs(30)}

	result, err := newTestBuilder(f).Build(context.Background(), exampleRequest())
	require.NoError(t, err)

	assert.Len(t, f.queries, 4)
	assert.Equal(t, 120, result.Collected)
	require.Len(t, f.added, 1)
	assert.Len(t, f.added[0], TargetCount)
	assert.LessOrEqual(t, len(f.added[0]), result.Collected)
}

func TestBuild_FewerThanTarget(t *testing.T) {
	f := &fakeProvider{recs: func(batch int, _ spotify.Query) ([]spotify.Track, error) {
		if batch == 0 {
			return trackRange("only", 1, 3), nil
		}
		return nil, nil
	}}

	result, err := newTestBuilder(f).Build(context.Background(), exampleRequest())
	require.NoError(t, err)

	assert.Len(t, result.Tracks, 3)
	require.Len(t, f.added, 1)
	assert.ElementsMatch(t, []string{"only1", "only2", "only3"}, f.added[0])
}

func TestBuild_AllBatchesFail(t *testing.T) {
	f := &fakeProvider{recs: func(int, spotify.Query) ([]spotify.Track, error) {
		return nil, spotifyapi.Error{Message: "service unavailable", Status: 503}
	}}

	result, err := newTestBuilder(f).Build(context.Background(), exampleRequest())
	require.ErrorIs(t, err, ErrNoRecommendations)
	assert.Nil(t, result)

	assert.Len(t, f.created, 1)
	assert.Len(t, f.queries, MaxBatches)
	assert.Empty(t, f.added, "no populate call without recommendations")
	assert.Empty(t, f.unfollowed)
}

func TestBuild_AllBatchesFailWithCleanup(t *testing.T) {
	f := &fakeProvider{recs: func(int, spotify.Query) ([]spotify.Track, error) {
		return nil, errors.New("timeout")
	}}

	_, err := newTestBuilder(f, WithOrphanCleanup(true)).Build(context.Background(), exampleRequest())
	require.ErrorIs(t, err, ErrNoRecommendations)
	assert.Equal(t, []string{"p1"}, f.unfollowed)
}

func TestBuild_SkippedBatchContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := &fakeProvider{recs: func(batch int, q spotify.Query) ([]spotify.Track, error) {
		if batch == 0 {
			return nil, spotifyapi.Error{Message: "invalid request", Status: 400}
		}
		return freshRecs(25)(batch, q)
	}}

	result, err := newTestBuilder(f, WithLogger(zap.New(core))).Build(context.Background(), exampleRequest())
	require.NoError(t, err)

	first := result.Batches[0]
	assert.Equal(t, BatchSkipped, first.Status)
	assert.Equal(t, "invalid request", first.Reason)
	require.Error(t, first.Err)
	assert.Equal(t, BatchOK, result.Batches[1].Status)
	assert.Equal(t, 1, result.Skipped())
	assert.Len(t, result.Batches, 5)

	assert.Equal(t, 1, logs.FilterMessage("recommendation batch skipped").Len())
}

func TestBuild_CreateFailure(t *testing.T) {
	f := &fakeProvider{
		createErr: spotifyapi.Error{Message: "Insufficient client scope", Status: 403},
		recs:      freshRecs(20),
	}

	result, err := newTestBuilder(f).Build(context.Background(), exampleRequest())
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrPlaylistCreate)

	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, "Insufficient client scope", createErr.Message)
	assert.Empty(t, f.queries, "no recommendations after a failed create")
	assert.Empty(t, f.added)
}

func TestBuild_PopulateFailure(t *testing.T) {
	tests := []struct {
		name          string
		cleanup       bool
		wantUnfollow  []string
		wantCleanedUp bool
	}{
		{"leaves playlist by default", false, nil, false},
		{"unfollows with cleanup", true, []string{"p1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeProvider{
				recs:   freshRecs(20),
				addErr: spotifyapi.Error{Message: "Playlist size limit reached", Status: 403},
			}

			_, err := newTestBuilder(f, WithOrphanCleanup(tt.cleanup)).Build(context.Background(), exampleRequest())
			require.ErrorIs(t, err, ErrPlaylistPopulate)
			assert.NotErrorIs(t, err, ErrPlaylistCreate)

			var popErr *PopulateError
			require.ErrorAs(t, err, &popErr)
			assert.Equal(t, "p1", popErr.PlaylistID)
			assert.Equal(t, "Playlist size limit reached", popErr.Message)
			assert.Equal(t, tt.wantCleanedUp, popErr.CleanedUp)
			assert.Equal(t, tt.wantUnfollow, f.unfollowed)
		})
	}
}

func TestBuild_NoSeedMaterial(t *testing.T) {
	f := &fakeProvider{recs: freshRecs(20)}

	_, err := newTestBuilder(f).Build(context.Background(), Request{AccessToken: "token", UserID: "u1"})
	require.ErrorIs(t, err, ErrNoSeedMaterial)
	assert.Empty(t, f.created)
}

func TestBuild_ContextCanceled(t *testing.T) {
	f := &fakeProvider{recs: freshRecs(20)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuilder(f).Build(ctx, exampleRequest())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.queries)
}

func TestBuild_CanceledAfterCreateCleansUp(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeProvider{recs: func(batch int, q spotify.Query) ([]spotify.Track, error) {
		cancel()
		return freshRecs(20)(batch, q)
	}}

	_, err := newTestBuilder(f, WithMetrics(m), WithOrphanCleanup(true)).Build(ctx, exampleRequest())
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, f.queries, 1)
	assert.Equal(t, []string{"p1"}, f.unfollowed, "playlist created before cancel is removed")
	assert.Empty(t, f.added)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Builds.WithLabelValues(metrics.BuildCanceled)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Builds.WithLabelValues(metrics.BuildOtherError)))
}

type excludeSet map[string]bool

func (e excludeSet) Has(id string) bool { return e[id] }

func TestBuild_ExcludesDeliveredTracks(t *testing.T) {
	f := &fakeProvider{recs: func(batch int, _ spotify.Query) ([]spotify.Track, error) {
		return []spotify.Track{
			track("old1"),
			track("old2"),
			track(fmt.Sprintf("new%d", batch)),
		}, nil
	}}
	req := exampleRequest()
	req.Exclude = excludeSet{"old1": true, "old2": true}

	result, err := newTestBuilder(f).Build(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, MaxBatches, result.Collected)
	for _, tr := range result.Tracks {
		assert.NotContains(t, []string{"old1", "old2"}, tr.ID)
	}
}

func TestBuild_SeedRotation(t *testing.T) {
	f := &fakeProvider{}
	req := exampleRequest()

	_, err := newTestBuilder(f).Build(context.Background(), req)
	require.ErrorIs(t, err, ErrNoRecommendations)
	require.Len(t, f.queries, MaxBatches)

	tests := []struct {
		batch int
		want  spotify.Seeds
	}{
		{0, spotify.Seeds{ArtistIDs: []string{"a1", "a2"}}},
		{1, spotify.Seeds{TrackIDs: []string{"t2"}}},
		{2, spotify.Seeds{Genres: []string{"g3", "g4"}}},
		{3, spotify.Seeds{ArtistIDs: []string{"a4", "a5"}}},
		{4, spotify.Seeds{TrackIDs: []string{"t5"}}},
		{5, spotify.Seeds{Genres: []string{"g1", "g2"}}},
		{9, spotify.Seeds{ArtistIDs: []string{"a10", "a1"}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("batch %d", tt.batch), func(t *testing.T) {
			assert.Equal(t, tt.want, f.queries[tt.batch].Seeds)
			assert.Equal(t, presets[tt.batch].Name, f.queries[tt.batch].Preset.Name)
		})
	}
}

func TestBuild_LimitTapers(t *testing.T) {
	f := &fakeProvider{}

	_, err := newTestBuilder(f).Build(context.Background(), exampleRequest())
	require.ErrorIs(t, err, ErrNoRecommendations)

	want := []int{7, 8, 8, 9, 10, 10, 12, 13, 15, 17, 20, 20, 20, 20, 20}
	got := make([]int, len(f.queries))
	for i, q := range f.queries {
		got[i] = q.Limit
	}
	assert.Equal(t, want, got)
}

func TestBuild_ShuffleUsesSource(t *testing.T) {
	order := func() []string {
		f := &fakeProvider{recs: freshRecs(20)}
		b := NewBuilder(f.factory(), WithRand(rand.New(rand.NewPCG(7, 7))))
		_, err := b.Build(context.Background(), exampleRequest())
		require.NoError(t, err)
		return f.added[0]
	}

	first, second := order(), order()
	assert.Equal(t, first, second, "same source gives same order")

	var arrival []string
	for batch := range 5 {
		for _, tr := range trackRange(fmt.Sprintf("fresh%d-", batch), 1, 20) {
			arrival = append(arrival, tr.ID)
		}
	}
	assert.ElementsMatch(t, arrival, first)
	assert.NotEqual(t, arrival, first, "tracks should be shuffled")
}

func TestBuild_ProgressAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := &fakeProvider{recs: func(batch int, q spotify.Query) ([]spotify.Track, error) {
		if batch == 1 {
			return nil, errors.New("boom")
		}
		return freshRecs(20)(batch, q)
	}}

	var calls []int
	progress := func(_ BatchResult, collected int) { calls = append(calls, collected) }

	_, err := newTestBuilder(f, WithMetrics(m), WithProgress(progress)).Build(context.Background(), exampleRequest())
	require.NoError(t, err)

	assert.Equal(t, []int{20, 20, 40, 60, 80, 100}, calls)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Batches.WithLabelValues(string(BatchOK))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Batches.WithLabelValues(string(BatchSkipped))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Builds.WithLabelValues(metrics.BuildSuccess)))
}

func TestBatchLimit(t *testing.T) {
	tests := []struct {
		remaining   int
		batchesLeft int
		want        int
	}{
		{100, 15, 7},
		{100, 6, 17},
		{100, 5, 20},
		{100, 1, 20},
		{40, 3, 14},
		{1, 15, 1},
		{10, 0, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d over %d", tt.remaining, tt.batchesLeft), func(t *testing.T) {
			assert.Equal(t, tt.want, batchLimit(tt.remaining, tt.batchesLeft))
		})
	}
}

func TestGenrePool(t *testing.T) {
	in := []spotify.Artist{
		{ID: "a1", Genres: []string{"indie", "pop"}},
		{ID: "a2", Genres: []string{"pop", "rock"}},
		{ID: "a3"},
		{ID: "a4", Genres: []string{"jazz", "", "soul", "funk"}},
	}

	assert.Equal(t, []string{"indie", "pop", "rock", "jazz", "soul"}, genrePool(in, genrePoolSize))
	assert.Empty(t, genrePool(nil, genrePoolSize))
}

func TestSeedFallback(t *testing.T) {
	t.Run("no genres uses first artist", func(t *testing.T) {
		m := newSeedMaterial([]spotify.Artist{{ID: "a1"}, {ID: "a2"}}, nil)
		assert.Equal(t, spotify.Seeds{ArtistIDs: []string{"a1"}}, m.forBatch(2))
		assert.Equal(t, spotify.Seeds{ArtistIDs: []string{"a1"}}, m.forBatch(1))
	})

	t.Run("no artists uses first track", func(t *testing.T) {
		m := newSeedMaterial(nil, trackRange("t", 1, 3))
		assert.Equal(t, spotify.Seeds{TrackIDs: []string{"t1"}}, m.forBatch(0))
		assert.Equal(t, spotify.Seeds{TrackIDs: []string{"t2"}}, m.forBatch(4))
	})

	t.Run("single artist", func(t *testing.T) {
		m := newSeedMaterial([]spotify.Artist{{ID: "a1", Genres: []string{"pop"}}}, nil)
		assert.Equal(t, spotify.Seeds{ArtistIDs: []string{"a1"}}, m.forBatch(3))
		assert.Equal(t, spotify.Seeds{Genres: []string{"pop"}}, m.forBatch(5))
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "My Vibe Mix: October 2026", Name(buildTime))
	assert.Equal(t, "My Vibe Mix: January 2027", Name(time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC)))
}

func TestPresets(t *testing.T) {
	require.Len(t, presets, MaxBatches)
	for i, p := range presets {
		assert.NotEmpty(t, p.Name, "preset %d", i)
		assert.LessOrEqual(t, p.MinEnergy, p.MaxEnergy, p.Name)
		assert.LessOrEqual(t, p.MinDanceability, p.MaxDanceability, p.Name)
		assert.LessOrEqual(t, p.MinValence, p.MaxValence, p.Name)
		assert.LessOrEqual(t, p.MinPopularity, p.MaxPopularity, p.Name)
	}
	assert.Equal(t, presets[0], presetFor(MaxBatches))
}
