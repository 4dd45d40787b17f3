// Package config holds runtime configuration for MyVibeLytics.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variables, e.g. MYVIBE_SPOTIFY_CLIENT_ID.
const EnvPrefix = "MYVIBE"

var (
	// ErrMissingSpotifyCredentials is returned when the Spotify client id or secret is not set.
	ErrMissingSpotifyCredentials = errors.New("missing spotify client id or secret")

	// ErrMissingDatabaseURL is returned when a command needs Postgres and no URL is configured.
	ErrMissingDatabaseURL = errors.New("missing database url")
)

// Config is the top-level configuration.
type Config struct {
	Spotify   SpotifyConfig
	Server    ServerConfig
	Database  DatabaseConfig
	LastFM    LastFMConfig
	Log       LogConfig
	Generator GeneratorConfig
}

// SpotifyConfig holds Spotify app credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string // overridable for tests; defaults to the accounts service
	TokenDir     string // FileStore directory for the CLI
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	URL string
}

// LastFMConfig holds Last.fm settings. An empty key disables genre enrichment.
type LastFMConfig struct {
	APIKey string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// GeneratorConfig tunes playlist generation.
type GeneratorConfig struct {
	RefreshBuffer    time.Duration
	BatchesPerSecond float64 // 0 disables pacing
	OrphanCleanup    bool
	SnapshotTTL      time.Duration
	EnrichWorkers    int
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://127.0.0.1:8080/callback",
			TokenURL:    "https://accounts.spotify.com/api/token",
			TokenDir:    "./.myvibelytics",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Generator: GeneratorConfig{
			RefreshBuffer:    5 * time.Minute,
			BatchesPerSecond: 5,
			SnapshotTTL:      10 * time.Minute,
			EnrichWorkers:    5,
		},
	}
}

// SetupViper configures env handling on v.
func SetupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// FromViper builds a Config from defaults overlaid with values set in v.
func FromViper(v *viper.Viper) *Config {
	cfg := DefaultConfig()

	setString(v, "spotify-client-id", &cfg.Spotify.ClientID)
	setString(v, "spotify-client-secret", &cfg.Spotify.ClientSecret)
	setString(v, "spotify-redirect-url", &cfg.Spotify.RedirectURL)
	setString(v, "spotify-token-url", &cfg.Spotify.TokenURL)
	setString(v, "spotify-token-dir", &cfg.Spotify.TokenDir)

	setString(v, "server-host", &cfg.Server.Host)
	if v.IsSet("server-port") && v.GetInt("server-port") > 0 {
		cfg.Server.Port = v.GetInt("server-port")
	}

	setString(v, "database-url", &cfg.Database.URL)
	setString(v, "lastfm-api-key", &cfg.LastFM.APIKey)
	setString(v, "log-level", &cfg.Log.Level)
	setString(v, "log-format", &cfg.Log.Format)

	if v.IsSet("refresh-buffer") && v.GetDuration("refresh-buffer") > 0 {
		cfg.Generator.RefreshBuffer = v.GetDuration("refresh-buffer")
	}
	if v.IsSet("batches-per-second") {
		cfg.Generator.BatchesPerSecond = v.GetFloat64("batches-per-second")
	}
	if v.IsSet("orphan-cleanup") {
		cfg.Generator.OrphanCleanup = v.GetBool("orphan-cleanup")
	}
	if v.IsSet("snapshot-ttl") && v.GetDuration("snapshot-ttl") > 0 {
		cfg.Generator.SnapshotTTL = v.GetDuration("snapshot-ttl")
	}
	if v.IsSet("enrich-workers") && v.GetInt("enrich-workers") > 0 {
		cfg.Generator.EnrichWorkers = v.GetInt("enrich-workers")
	}

	return cfg
}

// Validate checks settings required by every command.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingSpotifyCredentials
	}
	return nil
}

// RequireDatabase returns ErrMissingDatabaseURL when no database is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
