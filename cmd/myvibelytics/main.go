// Command myvibelytics runs the MyVibeLytics web application and CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/config"
	"github.com/justestif/myvibelytics/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "myvibelytics",
	Short: "MyVibeLytics - Spotify listening analytics and discovery playlists",
	Long: `MyVibeLytics connects to a Spotify account, shows mood, genre and personality
analytics derived from listening history, and builds playlists of fresh recommendations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		var err error
		cfg = config.FromViper(viper.GetViper())
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "env file (default is .env)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (json, console)")
	flags.String("spotify-client-id", "", "Spotify client ID")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.String("spotify-redirect-url", defaults.Spotify.RedirectURL, "Spotify OAuth redirect URL")
	flags.String("spotify-token-dir", defaults.Spotify.TokenDir, "directory for CLI token files")
	flags.String("database-url", "", "Postgres connection URL")
	flags.String("lastfm-api-key", "", "Last.fm API key (enables genre enrichment)")
	flags.String("server-host", defaults.Server.Host, "HTTP server host")
	flags.Int("server-port", defaults.Server.Port, "HTTP server port")
	flags.Duration("refresh-buffer", defaults.Generator.RefreshBuffer, "refresh tokens this close to expiry")
	flags.Float64("batches-per-second", defaults.Generator.BatchesPerSecond, "recommendation request rate (0 disables pacing)")
	flags.Bool("orphan-cleanup", defaults.Generator.OrphanCleanup, "unfollow playlists that could not be filled")
	flags.Duration("snapshot-ttl", defaults.Generator.SnapshotTTL, "listening snapshot cache TTL")
	flags.Int("enrich-workers", defaults.Generator.EnrichWorkers, "concurrent Last.fm lookups")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, loginCmd, logoutCmd, generateCmd, statsCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", envFile, err)
	}

	config.SetupViper(viper.GetViper())
}
