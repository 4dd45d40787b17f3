package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/myvibelytics/internal/auth"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget a user's stored Spotify tokens",
	Long: `Remove the tokens saved by the login command. With a database the user row
is kept and marked disconnected; otherwise the token file is deleted.`,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().StringVar(&userID, "user", "", "Spotify user ID")
	_ = logoutCmd.MarkFlagRequired("user")
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	files := auth.NewFileStore(cfg.Spotify.TokenDir)
	a, err := newApp(ctx, cfg, logger, files)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if a.db == nil {
		if err := files.Delete(userID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed tokens for %s from %s\n", userID, files.Dir())
		return nil
	}

	state, err := a.tokens.Store().Read(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading token state: %w", err)
	}
	if err := a.tokens.Disconnect(ctx, userID, state); err != nil {
		return err
	}
	fmt.Fprintf(out, "Disconnected %s\n", userID)
	return nil
}
