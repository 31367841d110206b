package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eringen/brandsite"
	"github.com/eringen/brandsite/views"
)

type serveOpts struct {
	addr   string
	db     string
	theme  string
	static string
}

func newServeCmd() *cobra.Command {
	var opts serveOpts
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the brand site",
		Long: `Run the brand site. Settings come from the environment:
SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR, ADDR, DATABASE_PATH,
ANALYTICS_PATH, ADMIN_PASSWORD (required), SESSION_SECRET (required),
COOKIE_SECURE, POSTER_THEME, POSTER_FETCH_TIMEOUT, POSTER_MAX_BODY and
POSTER_RATE_LIMIT, read after loading a .env file from the working
directory if one exists. Flags override the matching variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				loggerFromContext(cmd.Context()).Debug("no .env file loaded", "err", err)
			}
			cfg, err := configFromEnv()
			if err != nil {
				return err
			}
			if opts.addr != "" {
				cfg.Addr = opts.addr
			}
			if opts.db != "" {
				cfg.DatabasePath = opts.db
			}
			if opts.theme != "" {
				cfg.PosterThemePath = opts.theme
			}
			return serve(cmd.Context(), cfg, opts.static)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (env ADDR)")
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database path (env DATABASE_PATH)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "poster theme TOML file (env POSTER_THEME)")
	cmd.Flags().StringVar(&opts.static, "static", "public", "directory of static assets served under /public")
	return cmd
}

func configFromEnv() (brandsite.SiteConfig, error) {
	cfg := brandsite.SiteConfig{
		Name:            brandsite.EnvOr("SITE_NAME", "Studio"),
		URL:             brandsite.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:     brandsite.EnvOr("SITE_DESCRIPTION", ""),
		Author:          brandsite.EnvOr("SITE_AUTHOR", ""),
		Addr:            brandsite.EnvOr("ADDR", ":3000"),
		DatabasePath:    brandsite.EnvOr("DATABASE_PATH", "data/brandsite.db"),
		AnalyticsPath:   brandsite.EnvOr("ANALYTICS_PATH", "data/analytics.db"),
		AdminPassword:   brandsite.MustEnv("ADMIN_PASSWORD"),
		SessionSecret:   brandsite.MustEnv("SESSION_SECRET"),
		CookieSecure:    brandsite.EnvOr("COOKIE_SECURE", "") == "true",
		PosterThemePath: brandsite.EnvOr("POSTER_THEME", ""),
		PosterMaxBody:   brandsite.EnvOr("POSTER_MAX_BODY", "25M"),
	}
	if v := brandsite.EnvOr("POSTER_FETCH_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("POSTER_FETCH_TIMEOUT: %w", err)
		}
		cfg.PosterFetchTimeout = d
	}
	if v := brandsite.EnvOr("POSTER_RATE_LIMIT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("POSTER_RATE_LIMIT must be a positive integer, got %q", v)
		}
		cfg.PosterRateLimit = n
	}
	return cfg, nil
}

// serve runs the site until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg brandsite.SiteConfig, static string) error {
	logger := loggerFromContext(ctx)
	app := brandsite.New(cfg, views.Funcs(cfg),
		brandsite.WithStaticDir(static),
		brandsite.WithLogger(logger),
	)
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errc
}
