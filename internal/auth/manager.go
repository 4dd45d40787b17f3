package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/metrics"
)

// DefaultRefreshBuffer is how close to expiry a token may get before it is refreshed.
const DefaultRefreshBuffer = 5 * time.Minute

const refreshTimeout = 10 * time.Second

var (
	// ErrNoToken is returned when no access token was ever issued.
	ErrNoToken = errors.New("no spotify access token, authorization required")

	// ErrNoRefreshToken is returned when a refresh is attempted without a refresh token.
	ErrNoRefreshToken = errors.New("no spotify refresh token, authorization required")

	// ErrRefreshFailed is returned when the token endpoint rejects a refresh
	// or cannot be reached.
	ErrRefreshFailed = errors.New("spotify token refresh failed")
)

// Manager hands out valid access tokens, refreshing them before they expire.
// Concurrent refreshes of the same TokenState are not serialized.
type Manager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	store        Store
	client       *resty.Client
	buffer       time.Duration
	now          func() time.Time
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNowFunc overrides the clock.
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithRefreshBuffer overrides DefaultRefreshBuffer.
func WithRefreshBuffer(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.buffer = d
		}
	}
}

// WithTokenURL overrides the Spotify token endpoint.
func WithTokenURL(url string) ManagerOption {
	return func(m *Manager) {
		if url != "" {
			m.tokenURL = url
		}
	}
}

// WithHTTPClient sets the HTTP client used for refresh requests.
// hc is used as is; each refresh applies its own deadline.
func WithHTTPClient(hc *http.Client) ManagerOption {
	return func(m *Manager) {
		m.client = resty.NewWithClient(hc)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager creates a Manager that persists state through store.
func NewManager(clientID, clientSecret string, store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     spotifyauth.TokenURL,
		store:        store,
		buffer:       DefaultRefreshBuffer,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = resty.New()
	}
	return m
}

// tokenResponse is the token endpoint's success body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// tokenErrorResponse is the token endpoint's error body.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *tokenErrorResponse) message() string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return e.Error
}

// GetValidToken returns an access token that will not expire within the buffer.
// A token expiring within the buffer (inclusive) or already expired is refreshed.
func (m *Manager) GetValidToken(ctx context.Context, userID string, state *TokenState) (string, error) {
	if state == nil || state.AccessToken == "" {
		return "", ErrNoToken
	}

	if state.ExpiresAt.After(m.now().Add(m.buffer)) {
		return state.AccessToken, nil
	}

	return m.Refresh(ctx, userID, state)
}

// Refresh exchanges the refresh token for a new access token and persists the result.
// A non-success response clears state and persists the cleared state.
// A transport failure leaves state untouched.
func (m *Manager) Refresh(ctx context.Context, userID string, state *TokenState) (string, error) {
	if state == nil || state.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	reqCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	var (
		body    tokenResponse
		errBody tokenErrorResponse
	)
	resp, err := m.client.R().
		SetContext(reqCtx).
		SetBasicAuth(m.clientID, m.clientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": state.RefreshToken,
		}).
		SetResult(&body).
		SetError(&errBody).
		Post(m.tokenURL)
	if err != nil {
		m.metrics.RefreshOutcome(metrics.RefreshTransport)
		m.logger.Warn("token refresh request failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if !resp.IsSuccess() {
		m.metrics.RefreshOutcome(metrics.RefreshRejected)
		m.logger.Warn("token refresh rejected, disconnecting account",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode()),
			zap.String("reason", errBody.message()))

		state.Clear()
		if werr := m.store.Write(ctx, userID, state); werr != nil {
			m.logger.Error("persisting cleared token state",
				zap.String("user_id", userID),
				zap.Error(werr))
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrRefreshFailed, resp.StatusCode(), errBody.message())
	}

	if body.AccessToken == "" {
		m.metrics.RefreshOutcome(metrics.RefreshRejected)
		m.logger.Warn("token refresh response missing access_token",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode()))
		return "", fmt.Errorf("%w: response missing access_token", ErrRefreshFailed)
	}

	state.AccessToken = body.AccessToken
	state.ExpiresAt = m.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	if body.RefreshToken != "" {
		state.RefreshToken = body.RefreshToken
	}
	state.Connected = true

	if err := m.store.Write(ctx, userID, state); err != nil {
		m.logger.Error("persisting refreshed token",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	m.metrics.RefreshOutcome(metrics.RefreshSuccess)
	m.logger.Debug("token refreshed",
		zap.String("user_id", userID),
		zap.Time("expires_at", state.ExpiresAt))

	return state.AccessToken, nil
}

// Disconnect clears state and persists the cleared state.
func (m *Manager) Disconnect(ctx context.Context, userID string, state *TokenState) error {
	state.Clear()
	if err := m.store.Write(ctx, userID, state); err != nil {
		return fmt.Errorf("persisting disconnect: %w", err)
	}
	m.logger.Info("spotify account disconnected", zap.String("user_id", userID))
	return nil
}

// Store returns the Manager's token store.
func (m *Manager) Store() Store {
	return m.store
}
