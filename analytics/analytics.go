// Package analytics records privacy-first usage statistics for the poster
// endpoint: which layouts are rendered, how long renders take, how many fail
// and from which kinds of client. Client IPs are only stored as salted hashes.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Render is one call to the poster endpoint.
type Render struct {
	ID         int64     `json:"-"`
	ClientID   string    `json:"client_id"` // salted hash of IP and User-Agent
	Device     string    `json:"device"`    // Desktop, Mobile, Tablet or Bot
	Mode       string    `json:"mode"`      // cover, content, or "" when rejected before parsing
	Images     int       `json:"images"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Failed reports whether the render did not produce an image.
func (r Render) Failed() bool {
	return r.Status >= 400
}

// Stats holds aggregated render data for a period.
type Stats struct {
	Period        string          `json:"period"`
	TotalRenders  int             `json:"total_renders"`
	Failures      int             `json:"failures"`
	UniqueClients int             `json:"unique_clients"`
	AvgDuration   int             `json:"avg_duration_ms"`
	Modes         []DimensionStat `json:"modes"`
	Devices       []DimensionStat `json:"devices"`
	Statuses      []DimensionStat `json:"statuses"`
	Daily         []DailyCount    `json:"daily"`
}

// DimensionStat is one row of a breakdown.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyCount is the number of renders on one day (or hour, for "today").
type DailyCount struct {
	Date    string `json:"date"`
	Renders int    `json:"renders"`
}

// clientID derives an anonymous client identifier.
func clientID(salt, ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(salt + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DeviceFromUserAgent classifies a User-Agent as Bot, Tablet, Mobile or
// Desktop. Empty agents, which scripted API clients usually send, count as
// Desktop.
func DeviceFromUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case IsBot(ua):
		return "Bot"
	// iPad agents also contain "mobile".
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"facebookexternalhit", "curl/", "wget/", "python-requests",
}

// IsBot checks if the User-Agent is likely an automated client.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// TruncateDate returns t truncated to the start of its day, ISO week or month.
func TruncateDate(t time.Time, period string) time.Time {
	switch period {
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case "week":
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-wd+1, 0, 0, 0, 0, t.Location())
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}
