package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/justestif/myvibelytics/internal/auth"
	"github.com/justestif/myvibelytics/internal/web"
	webfs "github.com/justestif/myvibelytics/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	Long: `Run the web application. With a database URL, users, sessions, tokens and
playlist history are stored in Postgres; otherwise everything is kept in memory.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger, auth.NewMemoryStore())
	if err != nil {
		return err
	}
	defer a.Close()

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	deps := web.Deps{
		Auth:      auth.NewAuthenticator(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RedirectURL),
		Tokens:    a.tokens,
		Generator: a.generator,
		Sessions:  web.NewSessionStore(),
		Logger:    logger.Named("web"),
	}
	if a.db != nil {
		deps.Sessions = web.NewDBSessionStore(a.db.Sessions())
		deps.Users = a.db.Users()
		deps.DB = a.db
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr(),
		TemplatesFS: templates,
		StaticFS:    static,
		Gatherer:    a.registry,
	}, deps)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}
