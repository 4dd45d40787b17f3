package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	baseURL   = "https://ws.audioscrobbler.com"
	apiPath   = "/2.0/"
	userAgent = "myvibelytics/1.0"

	requestTimeout = 10 * time.Second
	cacheSize      = 4096

	// Rate-limited requests are retried up to 3 times, backing off from
	// 1s to 4s.
	maxRetries   = 3
	retryWait    = 1 * time.Second
	maxRetryWait = 4 * time.Second
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrNotFound is returned when Last.fm does not know the artist or track.
	ErrNotFound = errors.New("not found on Last.fm")
)

// Client is a Last.fm API client with an in-memory tag cache and retry on rate limit.
type Client struct {
	apiKey string
	http   *resty.Client
	cache  *lru.Cache[string, []Tag]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(url)
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = newRestyClient(resty.NewWithClient(hc))
	}
}

// WithRetryWait overrides the backoff bounds for rate-limited requests.
func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

// NewClient creates a new Last.fm API client from the provided configuration.
func NewClient(cfg *Config, opts ...Option) *Client {
	cache, _ := lru.New[string, []Tag](cacheSize)
	c := &Client{
		apiKey: cfg.APIKey,
		http:   newRestyClient(resty.New()),
		cache:  cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newRestyClient(rc *resty.Client) *resty.Client {
	return rc.
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && apiErrorCode(r.Body()) == errCodeRateLimited
		})
}

// ArtistTags fetches the top tags for an artist.
func (c *Client) ArtistTags(ctx context.Context, artist string) ([]Tag, error) {
	tags, err := c.topTags(ctx, "artist:"+strings.ToLower(artist), map[string]string{
		"method": "artist.getTopTags",
		"artist": artist,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching artist tags: %w", err)
	}
	return tags, nil
}

// topTags serves a getTopTags call from cache or the API.
// Successful results, including empty ones, are cached.
func (c *Client) topTags(ctx context.Context, key string, params map[string]string) ([]Tag, error) {
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp topTagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	tags := resp.TopTags.Tag
	if tags == nil {
		tags = []Tag{}
	}
	c.cache.Add(key, tags)
	return tags, nil
}

// get performs a GET request. Rate-limited responses are retried by the
// resty client before the error is mapped here.
func (c *Client) get(ctx context.Context, params map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParams(map[string]string{
			"autocorrect": "1",
			"format":      "json",
			"api_key":     c.apiKey,
		}).
		Get(apiPath)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body := resp.Body()

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	return body, nil
}

func apiErrorCode(body []byte) int {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return 0
	}
	return apiErr.Error
}

// TagNames returns up to n distinct tag names in order, lower-cased.
func TagNames(tags []Tag, n int) []string {
	names := make([]string, 0, min(n, len(tags)))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if len(names) == n {
			break
		}
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
