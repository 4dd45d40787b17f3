package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/config"
	"github.com/justestif/myvibelytics/internal/playlist"
)

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	progress := progressPrinter(&buf)

	progress(playlist.BatchResult{Index: 0, Status: playlist.BatchOK, Preset: "balanced", Accepted: 7}, 7)
	progress(playlist.BatchResult{Index: 1, Status: playlist.BatchSkipped, Preset: "chill", Reason: "rate limited"}, 7)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "batch  1/15")
	assert.Contains(t, string(lines[0]), "+7 (7/100)")
	assert.Contains(t, string(lines[1]), "batch  2/15")
	assert.Contains(t, string(lines[1]), "skipped: rate limited")
}

// setupCLI points the command globals at a file-backed config.
func setupCLI(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Spotify.ClientID = "id"
	c.Spotify.ClientSecret = "secret"
	c.Spotify.TokenDir = dir
	c.Database.URL = ""
	c.LastFM.APIKey = ""

	prevCfg, prevLogger, prevUser := cfg, logger, userID
	cfg, logger = c, zap.NewNop()
	t.Cleanup(func() { cfg, logger, userID = prevCfg, prevLogger, prevUser })
	return dir
}

func runCommand(t *testing.T, run func(*cobra.Command, []string) error) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	err := run(cmd, nil)
	return out.String(), err
}

func TestLogout_RemovesTokenFile(t *testing.T) {
	dir := setupCLI(t)
	store := auth.NewFileStore(dir)
	require.NoError(t, store.Write(context.Background(), "u1", &auth.TokenState{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Connected:    true,
	}))
	userID = "u1"

	out, err := runCommand(t, runLogout)
	require.NoError(t, err)

	assert.Contains(t, out, "Removed tokens for u1 from "+dir)
	_, statErr := os.Stat(filepath.Join(dir, "u1.json"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "token file should be gone")

	state, err := store.Read(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, state.Connected)
}

func TestLogout_MissingFileIsNotAnError(t *testing.T) {
	setupCLI(t)
	userID = "nobody"

	_, err := runCommand(t, runLogout)
	assert.NoError(t, err)
}

func TestLogout_InvalidUserID(t *testing.T) {
	setupCLI(t)
	userID = "../escape"

	_, err := runCommand(t, runLogout)
	assert.ErrorIs(t, err, auth.ErrInvalidUserID)
}
