package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(viper.New())

	if cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", cfg.Server.Addr(), "127.0.0.1:8080")
	}
	if cfg.Generator.RefreshBuffer != 5*time.Minute {
		t.Errorf("RefreshBuffer = %v, want 5m", cfg.Generator.RefreshBuffer)
	}
	if cfg.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
		t.Errorf("TokenURL = %q", cfg.Spotify.TokenURL)
	}
	if cfg.Generator.OrphanCleanup {
		t.Error("OrphanCleanup should default to false")
	}
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("spotify-client-id", "id")
	v.Set("spotify-client-secret", "secret")
	v.Set("server-port", 9090)
	v.Set("database-url", "postgres://localhost/vibes")
	v.Set("refresh-buffer", "2m")
	v.Set("orphan-cleanup", true)
	v.Set("batches-per-second", 0)

	cfg := FromViper(v)

	if cfg.Spotify.ClientID != "id" || cfg.Spotify.ClientSecret != "secret" {
		t.Errorf("credentials = %q/%q", cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://localhost/vibes" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Generator.RefreshBuffer != 2*time.Minute {
		t.Errorf("RefreshBuffer = %v, want 2m", cfg.Generator.RefreshBuffer)
	}
	if !cfg.Generator.OrphanCleanup {
		t.Error("OrphanCleanup = false, want true")
	}
	if cfg.Generator.BatchesPerSecond != 0 {
		t.Errorf("BatchesPerSecond = %v, want 0", cfg.Generator.BatchesPerSecond)
	}
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("MYVIBE_LASTFM_API_KEY", "lfm-key")

	v := viper.New()
	SetupViper(v)
	cfg := FromViper(v)

	if cfg.LastFM.APIKey != "lfm-key" {
		t.Errorf("LastFM.APIKey = %q, want %q", cfg.LastFM.APIKey, "lfm-key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing credentials",
			mutate:  func(*Config) {},
			wantErr: ErrMissingSpotifyCredentials,
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
			},
			wantErr: ErrMissingSpotifyCredentials,
		},
		{
			name: "valid",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := DefaultConfig()
	if !errors.Is(cfg.RequireDatabase(), ErrMissingDatabaseURL) {
		t.Error("RequireDatabase() should fail without a URL")
	}
	cfg.Database.URL = "postgres://x"
	if err := cfg.RequireDatabase(); err != nil {
		t.Errorf("RequireDatabase() = %v, want nil", err)
	}
}
