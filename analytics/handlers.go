package analytics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Context keys the poster handler uses to describe what it rendered.
const (
	modeKey   = "analytics.mode"
	imagesKey = "analytics.images"
)

// Handler records poster renders and serves their statistics.
type Handler struct {
	store *Store
}

// NewHandler creates a new analytics handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Describe attaches the parsed layout mode and image count of the current
// request so Track can record them.
func Describe(c echo.Context, mode string, images int) {
	c.Set(modeKey, mode)
	c.Set(imagesKey, images)
}

// Track is middleware for the poster endpoint. It records one Render per
// request after the handler returns, unless the client sent DNT: 1.
func (h *Handler) Track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		if req.Header.Get("DNT") == "1" {
			return err
		}
		status := c.Response().Status
		if err != nil {
			status = http.StatusInternalServerError
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		mode, _ := c.Get(modeKey).(string)
		images, _ := c.Get(imagesKey).(int)
		ua := req.UserAgent()
		r := Render{
			ClientID:   h.store.ClientID(c.RealIP(), ua),
			Device:     DeviceFromUserAgent(ua),
			Mode:       mode,
			Images:     images,
			Status:     status,
			DurationMS: time.Since(start).Milliseconds(),
			Timestamp:  time.Now().UTC(),
		}
		if serr := h.store.SaveRender(req.Context(), r); serr != nil {
			c.Logger().Errorf("save render: %v", serr)
		}
		return err
	}
}

// StatsResponse is the JSON response for the stats endpoint.
type StatsResponse struct {
	Stats      *Stats `json:"stats"`
	PeriodDays int    `json:"period_days"`
	Hourly     bool   `json:"hourly"`
	Monthly    bool   `json:"monthly"`
}

// GetStats returns render statistics as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	_, days, hourly, monthly := parsePeriod(c.QueryParam("period"))
	from, to := calcTimeRange(time.Now().UTC(), days, hourly)

	stats, err := h.store.GetStats(c.Request().Context(), from, to, hourly, monthly)
	if err != nil {
		c.Logger().Errorf("get render stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if hourly {
		stats.Daily = fillHourlyData(stats.Daily, from)
	}
	return c.JSON(http.StatusOK, StatsResponse{
		Stats:      stats,
		PeriodDays: days,
		Hourly:     hourly,
		Monthly:    monthly,
	})
}

// RegisterRoutes registers the admin stats endpoint behind authMiddleware.
func (h *Handler) RegisterRoutes(e *echo.Echo, authMiddleware echo.MiddlewareFunc) {
	admin := e.Group("/admin/stats")
	admin.Use(authMiddleware)
	admin.GET("/", h.GetStats)
}

// parsePeriod maps the period query parameter to a day count and bucket size.
func parsePeriod(period string) (string, int, bool, bool) {
	switch period {
	case "today":
		return period, 1, true, false
	case "month":
		return period, 30, false, false
	case "year":
		return period, 365, false, true
	default:
		return "week", 7, false, false
	}
}

// calcTimeRange returns the from/to times for the given period.
func calcTimeRange(now time.Time, days int, hourly bool) (time.Time, time.Time) {
	if hourly {
		next := now.Truncate(time.Hour).Add(time.Hour)
		return next.Add(-24 * time.Hour), next
	}
	from := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
	to := now.Add(24 * time.Hour).Truncate(24 * time.Hour)
	return from, to
}

// fillHourlyData ensures all 24 hourly slots are present, filling gaps with zero.
func fillHourlyData(sparse []DailyCount, from time.Time) []DailyCount {
	counts := make(map[string]int, len(sparse))
	for _, v := range sparse {
		counts[v.Date] = v.Renders
	}
	result := make([]DailyCount, 24)
	for i := range result {
		label := from.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:00")
		result[i] = DailyCount{Date: label, Renders: counts[label]}
	}
	return result
}
