package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/justestif/myvibelytics/internal/analytics"
	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/playlist"
)

var userID string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build a discovery playlist for a connected user",
	RunE:  runGenerate,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print listening analytics for a connected user",
	RunE:  runStats,
}

func init() {
	for _, cmd := range []*cobra.Command{generateCmd, statsCmd} {
		cmd.Flags().StringVar(&userID, "user", "", "Spotify user ID (see the login command)")
		_ = cmd.MarkFlagRequired("user")
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out := cmd.OutOrStdout()
	a, err := newApp(ctx, cfg, logger, auth.NewFileStore(cfg.Spotify.TokenDir),
		playlist.WithProgress(progressPrinter(out)))
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.generator.Generate(ctx, userID)
	if err != nil {
		var populateErr *playlist.PopulateError
		if errors.As(err, &populateErr) && !populateErr.CleanedUp {
			fmt.Fprintf(out, "Playlist %s was created but could not be filled.\n", populateErr.PlaylistID)
		}
		return err
	}

	fmt.Fprintf(out, "%s\n%s\n\n", result.Playlist.Name, result.Playlist.URL)
	for i, t := range result.Tracks {
		fmt.Fprintf(out, "%3d. %s - %s\n", i+1, t.ArtistNames(), t.Name)
	}
	fmt.Fprintf(out, "\n%d tracks, %d batches (%d skipped), %d collected\n",
		len(result.Tracks), len(result.Batches), result.Skipped(), result.Collected)
	return nil
}

// progressPrinter writes one line per recommendation batch.
func progressPrinter(w io.Writer) playlist.ProgressFunc {
	return func(b playlist.BatchResult, collected int) {
		if b.Status == playlist.BatchSkipped {
			fmt.Fprintf(w, "batch %2d/%d  %-12s skipped: %s\n", b.Index+1, playlist.MaxBatches, b.Preset, b.Reason)
			return
		}
		fmt.Fprintf(w, "batch %2d/%d  %-12s +%d (%d/%d)\n",
			b.Index+1, playlist.MaxBatches, b.Preset, b.Accepted, collected, playlist.TargetCount)
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger, auth.NewFileStore(cfg.Spotify.TokenDir))
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.generator.Profile(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), analytics.FormatSummary(profile))
	return nil
}
