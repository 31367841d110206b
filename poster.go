package brandsite

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/brandsite/analytics"
	"github.com/eringen/brandsite/poster"
)

// generateRequest is the JSON body of POST /api/generate-xiaohongshu.
type generateRequest struct {
	Title           string         `json:"title"`
	Subtitle        string         `json:"subtitle"`
	Content         string         `json:"content"`
	Type            string         `json:"type"`
	Images          []poster.Image `json:"images"`
	BackgroundImage string         `json:"backgroundImage"`
}

type apiError struct {
	Error string `json:"error"`
}

func (a *App) handleGeneratePoster(c echo.Context) error {
	if !a.posterLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, apiError{"too many requests, try again later"})
	}

	var body generateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			// Body limit exceeded while reading.
			return c.JSON(he.Code, apiError{http.StatusText(he.Code)})
		}
		return c.JSON(http.StatusBadRequest, apiError{"invalid JSON body"})
	}

	mode, err := poster.ParseMode(body.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{`type must be "cover" or "content"`})
	}
	analytics.Describe(c, string(mode), len(body.Images))
	req := poster.Request{
		Mode:       mode,
		Title:      body.Title,
		Subtitle:   body.Subtitle,
		Body:       body.Content,
		Images:     body.Images,
		Background: body.BackgroundImage,
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{err.Error()})
	}

	data, err := a.Poster.RenderPNG(c.Request().Context(), req)
	if err != nil {
		c.Logger().Errorf("generate poster: %v", err)
		return c.JSON(http.StatusInternalServerError, apiError{"failed to generate image"})
	}
	return writePNG(c, fmt.Sprintf("xiaohongshu-%s.png", mode), data)
}

// handlePosterPage renders a published draft on demand.
func (a *App) handlePosterPage(c echo.Context) error {
	d, err := a.Cache.GetPublished(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	data, err := a.Poster.RenderPNG(c.Request().Context(), d.Request())
	if err != nil {
		return fmt.Errorf("render draft %s: %w", d.ID, err)
	}
	return c.Blob(http.StatusOK, "image/png", data)
}
