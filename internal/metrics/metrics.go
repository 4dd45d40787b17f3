// Package metrics defines Prometheus collectors for token refreshes and playlist builds.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "myvibelytics"

// Refresh outcomes.
const (
	RefreshSuccess   = "success"
	RefreshRejected  = "rejected"
	RefreshTransport = "transport_error"
)

// Build outcomes.
const (
	BuildSuccess           = "success"
	BuildCreateFailed      = "create_failed"
	BuildPopulateFailed    = "populate_failed"
	BuildNoRecommendations = "no_recommendations"
	BuildCanceled          = "canceled"
	BuildOtherError        = "error"
)

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TokenRefreshes  *prometheus.CounterVec
	Batches         *prometheus.CounterVec
	Builds          *prometheus.CounterVec
	BuildDuration   prometheus.Histogram
	TracksCollected prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refresh_total",
				Help:      "Token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "playlist_batches_total",
				Help:      "Recommendation batches by status",
			},
			[]string{"status"},
		),
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "playlist_builds_total",
				Help:      "Playlist builds by outcome",
			},
			[]string{"outcome"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "playlist_build_duration_seconds",
				Help:      "Time spent building a playlist",
				Buckets:   prometheus.DefBuckets,
			},
		),
		TracksCollected: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "playlist_tracks_collected",
				Help:      "Unique tracks collected per build",
				Buckets:   []float64{0, 10, 25, 50, 75, 100},
			},
		),
	}

	reg.MustRegister(
		m.TokenRefreshes,
		m.Batches,
		m.Builds,
		m.BuildDuration,
		m.TracksCollected,
	)
	return m
}

// RefreshOutcome counts a token refresh.
func (m *Metrics) RefreshOutcome(outcome string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}

// BatchStatus counts a recommendation batch.
func (m *Metrics) BatchStatus(status string) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(status).Inc()
}

// BuildFinished records a completed build.
func (m *Metrics) BuildFinished(outcome string, seconds float64, collected int) {
	if m == nil {
		return
	}
	m.Builds.WithLabelValues(outcome).Inc()
	m.BuildDuration.Observe(seconds)
	m.TracksCollected.Observe(float64(collected))
}
