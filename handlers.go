package brandsite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	drafts, err := a.Cache.ListPublished()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(drafts, a.Config))
}

func (a *App) handleSitemap(c echo.Context) error {
	drafts, err := a.Cache.ListPublished()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, drafts)
}

func (a *App) handleFeed(c echo.Context) error {
	drafts, err := a.Cache.ListPublished()
	if err != nil {
		return err
	}
	return a.renderRSS(c, drafts)
}

// handleFavicon prefers the site's own favicon and falls back to the
// embedded one.
func (a *App) handleFavicon(c echo.Context) error {
	path := filepath.Join(a.staticDir, "favicon.svg")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	data, err := EmbeddedAssets.ReadFile("embedded/favicon.svg")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", data)
}

func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: %s\n",
		strings.TrimRight(a.Config.URL, "/")+"/sitemap.xml")
	return c.String(http.StatusOK, body)
}

type statusResponse struct {
	Success     bool              `json:"success"`
	Timestamp   string            `json:"timestamp"`
	Environment statusEnvironment `json:"environment"`
	Connection  statusConnection  `json:"connection"`
}

type statusEnvironment struct {
	HasDatabasePath  bool `json:"hasDatabasePath"`
	HasAdminPassword bool `json:"hasAdminPassword"`
	HasSessionSecret bool `json:"hasSessionSecret"`
	HasPosterTheme   bool `json:"hasPosterTheme"`
}

type statusConnection struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	Drafts    int    `json:"drafts"`
}

// handleStatus reports which settings are present and whether the database
// answers. A failed ping is reported in the body, not as an HTTP error.
func (a *App) handleStatus(c echo.Context) error {
	resp := statusResponse{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: statusEnvironment{
			HasDatabasePath:  a.Config.DatabasePath != "",
			HasAdminPassword: a.Config.AdminPassword != "",
			HasSessionSecret: a.Config.SessionSecret != "",
			HasPosterTheme:   a.Config.PosterThemePath != "",
		},
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		resp.Connection.Error = err.Error()
		return c.JSON(http.StatusOK, resp)
	}
	resp.Connection.Connected = true
	if drafts, err := a.Cache.ListPublished(); err == nil {
		resp.Connection.Drafts = len(drafts)
	}
	return c.JSON(http.StatusOK, resp)
}

func isAPIPath(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}

	if isAPIPath(c) {
		msg := http.StatusText(code)
		switch {
		case code >= 500 && c.Request().URL.Path == posterAPIPath:
			msg = "failed to generate image"
		case code < 500:
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
		}
		_ = c.JSON(code, apiError{msg})
		return
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError())
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
