// Package brandsite is a personal-brand website built with Go, Echo, and templ.
// Besides the brand pages it serves a poster endpoint that turns text and
// images into 1242×1656 social-media graphics, and an admin area for storing
// poster drafts with realtime change notifications.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and brandsite handles the handler logic, middleware, and database operations.
package brandsite

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eringen/brandsite/analytics"
	"github.com/eringen/brandsite/poster"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home           func(drafts []Draft, cfg SiteConfig) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(drafts []Draft, message string, csrfToken string) templ.Component
	AdminForm      func(draft Draft, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central brandsite application. It wires together the store,
// cache, poster renderer, realtime hub, handlers, middleware, and
// user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *DraftCache
	Poster *poster.Renderer
	Hub    *Hub
	Views  ViewFuncs

	Analytics *analytics.Handler

	analyticsStore *analytics.Store
	stopCleanup    func()
	loginLimiter   *RateLimiter
	posterLimiter  *RateLimiter
	logger         *log.Logger
	customRoutes   []func(*App)
	staticDir      string
}

// New creates a new brandsite App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "brandsite",
		})
	}

	return a
}

// Setup initializes the database, cache, renderer, hub, middleware and
// routes without starting the server.
func (a *App) Setup() error {
	if a.Config.AdminPassword == "" {
		return errors.New("brandsite: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("brandsite: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("brandsite: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewDraftCache(a.Store, a.Config.DraftCacheTTL)

	stats, err := analytics.NewStore(a.Config.AnalyticsPath)
	if err != nil {
		return fmt.Errorf("brandsite: init analytics: %w", err)
	}
	a.analyticsStore = stats
	a.Analytics = analytics.NewHandler(stats)
	a.stopCleanup = stats.StartCleanupScheduler(a.Config.AnalyticsRetentionDays, 24*time.Hour, a.logger)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.posterLimiter = NewRateLimiter(a.Config.PosterRateLimit, time.Minute)

	if a.Poster == nil {
		r, err := NewPosterRenderer(a.Config, a.logger)
		if err != nil {
			return fmt.Errorf("brandsite: init poster renderer: %w", err)
		}
		a.Poster = r
	}

	a.Hub = NewHub(a.logger)
	go a.Hub.Run()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and then serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.logger.Info("listening", "addr", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NewPosterRenderer builds the poster renderer described by cfg: the theme
// file if one is set, fonts resolved from the theme, and a payload loader
// with the configured fetch timeout.
func NewPosterRenderer(cfg SiteConfig, logger *log.Logger) (*poster.Renderer, error) {
	theme := poster.DefaultTheme()
	if cfg.PosterThemePath != "" {
		t, err := poster.LoadTheme(cfg.PosterThemePath)
		if err != nil {
			return nil, err
		}
		theme = t
	}
	fonts, err := poster.LoadFonts(theme.Fonts, logger)
	if err != nil {
		return nil, err
	}
	timeout := cfg.PosterFetchTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return poster.NewRenderer(fonts,
		poster.WithTheme(theme),
		poster.WithLoader(poster.NewPayloadLoader(timeout)),
		poster.WithLogger(logger),
	), nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet, served ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/brand.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posters/:slug", a.handlePosterPage)

	// API
	e.GET("/api/status", a.handleStatus)
	e.POST(posterAPIPath, a.handleGeneratePoster, a.Analytics.Track, a.posterBodyLimit())

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/draft/:id/", a.handleAdminDraft)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/draft/:id/", a.handleAdminDelete)
	e.GET(subscribePath, a.handleSubscribe)
	a.Analytics.RegisterRoutes(e, requireAdmin)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.posterLimiter != nil {
		a.posterLimiter.Stop()
	}
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.analyticsStore != nil {
		a.analyticsStore.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatal("required environment variable is not set", "key", key)
	}
	return v
}
