package brandsite

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/eringen/brandsite/poster"
)

// SiteConfig holds all configuration for a brand site.
type SiteConfig struct {
	Name        string // Site name (default "Studio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for feeds and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/brandsite.db")

	AdminPassword string // Required: admin login password, plain or bcrypt hash
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	DraftCacheTTL time.Duration // Published draft cache TTL (default 5min)

	PosterThemePath    string        // Optional TOML theme file
	PosterFetchTimeout time.Duration // Per-image fetch timeout (default 15s)
	PosterMaxBody      string        // Request body limit for the poster API (default "25M")
	PosterRateLimit    int           // Poster renders per IP per minute (default 20)

	AnalyticsPath          string // Render statistics database (default "data/analytics.db")
	AnalyticsRetentionDays int    // Days of render records to keep (default 90)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Studio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/brandsite.db"
	}
	if c.DraftCacheTTL == 0 {
		c.DraftCacheTTL = 5 * time.Minute
	}
	if c.PosterFetchTimeout == 0 {
		c.PosterFetchTimeout = 15 * time.Second
	}
	if c.PosterMaxBody == "" {
		c.PosterMaxBody = "25M"
	}
	if c.PosterRateLimit == 0 {
		c.PosterRateLimit = 20
	}
	if c.AnalyticsPath == "" {
		c.AnalyticsPath = "data/analytics.db"
	}
	if c.AnalyticsRetentionDays == 0 {
		c.AnalyticsRetentionDays = 90
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithRenderer replaces the poster renderer built from the config.
func WithRenderer(r *poster.Renderer) Option {
	return func(a *App) {
		a.Poster = r
	}
}

// WithLogger sets the logger handed to the poster renderer and the
// realtime hub.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}
