package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/db"
	"github.com/justestif/myvibelytics/internal/spotify"
)

const loginTimeout = 2 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect a Spotify account for the generate and stats commands",
	Long: `Run the Spotify authorization flow with a temporary local callback server.
Tokens are stored in the database when configured, otherwise in --spotify-token-dir.`,
	RunE: runLogin,
}

type exchangeResult struct {
	state *auth.TokenState
	err   error
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger, auth.NewFileStore(cfg.Spotify.TokenDir))
	if err != nil {
		return err
	}
	defer a.Close()

	redirect, err := url.Parse(cfg.Spotify.RedirectURL)
	if err != nil {
		return fmt.Errorf("parsing redirect url: %w", err)
	}

	oauthState, err := auth.GenerateState()
	if err != nil {
		return fmt.Errorf("generating state: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RedirectURL)

	results := make(chan exchangeResult, 1)
	router := chi.NewRouter()
	router.Get(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		state, err := authenticator.Exchange(r.Context(), r, oauthState)
		if err != nil {
			http.Error(w, "Authorization failed, see the terminal for details.", http.StatusBadRequest)
		} else {
			_, _ = w.Write([]byte("MyVibeLytics is connected. You can close this window."))
		}
		select {
		case results <- exchangeResult{state: state, err: err}:
		default:
		}
	})

	server := &http.Server{Addr: redirect.Host, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down callback server", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Open this URL in your browser to connect Spotify:\n\n  %s\n\n", authenticator.AuthURL(oauthState))
	fmt.Fprintf(out, "Waiting for authorization (%s timeout)...\n", loginTimeout)

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result exchangeResult
	select {
	case result = <-results:
	case err := <-serverErrors:
		return fmt.Errorf("callback server: %w", err)
	case <-timeout.C:
		return fmt.Errorf("authorization timed out after %s", loginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if result.err != nil {
		return result.err
	}

	profile, err := spotify.NewFromToken(ctx, result.state.AccessToken).CurrentProfile(ctx)
	if err != nil {
		return err
	}

	if a.db != nil {
		user := &db.User{ID: profile.ID, DisplayName: profile.DisplayName, Email: profile.Email}
		if profile.AvatarURL != "" {
			user.AvatarURL = &profile.AvatarURL
		}
		if err := a.db.Users().Upsert(ctx, user); err != nil {
			return err
		}
	}
	if err := a.tokens.Store().Write(ctx, profile.ID, result.state); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintf(out, "Connected as %s. Use --user %s with generate and stats.\n", profile.DisplayName, profile.ID)
	return nil
}
