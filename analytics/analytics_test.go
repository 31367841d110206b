package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDeviceFromUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0", "Desktop"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", "Mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", "Tablet"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1)", "Bot"},
		{"curl/8.4.0", "Bot"},
		{"", "Desktop"},
	}
	for _, tt := range tests {
		if got := DeviceFromUserAgent(tt.ua); got != tt.want {
			t.Errorf("DeviceFromUserAgent(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestTruncateDate(t *testing.T) {
	// Thursday
	d := time.Date(2026, 3, 12, 15, 4, 5, 0, time.UTC)
	if got := TruncateDate(d, "day"); !got.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v", got)
	}
	if got := TruncateDate(d, "week"); !got.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week = %v", got)
	}
	if got := TruncateDate(d, "month"); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month = %v", got)
	}
}

func TestSaltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	s1, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id := s1.ClientID("203.0.113.7", "agent")
	s1.Close()

	s2, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if got := s2.ClientID("203.0.113.7", "agent"); got != id {
		t.Errorf("ClientID changed across reopen: %q != %q", got, id)
	}
	if len(id) != 16 {
		t.Errorf("ClientID length = %d, want 16", len(id))
	}
	if s2.ClientID("203.0.113.8", "agent") == id {
		t.Error("different IPs share a ClientID")
	}
}

func TestGetStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	renders := []Render{
		{ClientID: "a", Device: "Desktop", Mode: "cover", Status: 200, DurationMS: 100, Timestamp: now},
		{ClientID: "a", Device: "Desktop", Mode: "content", Images: 2, Status: 200, DurationMS: 300, Timestamp: now},
		{ClientID: "b", Device: "Mobile", Mode: "", Status: 400, DurationMS: 2, Timestamp: now},
		// Outside the week window.
		{ClientID: "c", Device: "Desktop", Mode: "cover", Status: 200, Timestamp: now.AddDate(0, 0, -30)},
	}
	for _, r := range renders {
		if err := s.SaveRender(ctx, r); err != nil {
			t.Fatalf("SaveRender: %v", err)
		}
	}

	from, to := calcTimeRange(now, 7, false)
	stats, err := s.GetStats(ctx, from, to, false, false)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRenders != 3 {
		t.Errorf("TotalRenders = %d, want 3", stats.TotalRenders)
	}
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
	if stats.UniqueClients != 2 {
		t.Errorf("UniqueClients = %d, want 2", stats.UniqueClients)
	}
	if stats.AvgDuration != 134 {
		t.Errorf("AvgDuration = %d, want 134", stats.AvgDuration)
	}
	modes := map[string]int{}
	for _, m := range stats.Modes {
		modes[m.Name] = m.Count
	}
	if modes["cover"] != 1 || modes["content"] != 1 || modes["invalid"] != 1 {
		t.Errorf("Modes = %+v", stats.Modes)
	}
	if len(stats.Daily) != 1 || stats.Daily[0].Renders != 3 {
		t.Errorf("Daily = %+v, want one bucket of 3", stats.Daily)
	}

	if err := s.CleanupOldRenders(7); err != nil {
		t.Fatalf("CleanupOldRenders: %v", err)
	}
	from, _ = calcTimeRange(now, 365, false)
	stats, err = s.GetStats(ctx, from, to, false, true)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRenders != 3 {
		t.Errorf("after cleanup TotalRenders = %d, want 3", stats.TotalRenders)
	}
}

func TestFillHourlyData(t *testing.T) {
	from := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	got := fillHourlyData([]DailyCount{{Date: "2026-03-12 12:00", Renders: 4}}, from)
	if len(got) != 24 {
		t.Fatalf("len = %d, want 24", len(got))
	}
	if got[2].Renders != 4 || got[0].Renders != 0 {
		t.Errorf("slots = %+v", got[:3])
	}
	if got[23].Date != "2026-03-13 09:00" {
		t.Errorf("last slot = %q", got[23].Date)
	}
}

func TestTrackRecordsRender(t *testing.T) {
	s := setupTestStore(t)
	h := NewHandler(s)
	e := echo.New()

	handler := h.Track(func(c echo.Context) error {
		Describe(c, "content", 3)
		return c.NoContent(http.StatusOK)
	})
	failing := h.Track(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge)
	})

	for i, fn := range []echo.HandlerFunc{handler, failing} {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-xiaohongshu", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone) Mobile")
		c := e.NewContext(req, httptest.NewRecorder())
		err := fn(c)
		if i == 1 && err == nil {
			t.Fatal("Track swallowed the handler error")
		}
	}

	dnt := httptest.NewRequest(http.MethodPost, "/api/generate-xiaohongshu", nil)
	dnt.Header.Set("DNT", "1")
	if err := handler(e.NewContext(dnt, httptest.NewRecorder())); err != nil {
		t.Fatalf("handler: %v", err)
	}

	from, to := calcTimeRange(time.Now().UTC(), 7, false)
	stats, err := s.GetStats(context.Background(), from, to, false, false)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRenders != 2 || stats.Failures != 1 {
		t.Errorf("stats = %+v, want 2 renders with 1 failure", stats)
	}
	if len(stats.Devices) != 1 || stats.Devices[0].Name != "Mobile" {
		t.Errorf("Devices = %+v", stats.Devices)
	}
	statuses := map[string]int{}
	for _, st := range stats.Statuses {
		statuses[st.Name] = st.Count
	}
	if statuses["200"] != 1 || statuses["413"] != 1 {
		t.Errorf("Statuses = %+v", stats.Statuses)
	}
}

func TestGetStatsHandler(t *testing.T) {
	s := setupTestStore(t)
	h := NewHandler(s)
	if err := s.SaveRender(context.Background(), Render{
		ClientID: "a", Device: "Desktop", Mode: "cover", Status: 200, Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("SaveRender: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/stats/?period=today", nil)
	rec := httptest.NewRecorder()
	if err := h.GetStats(e.NewContext(req, rec)); err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Hourly || resp.PeriodDays != 1 {
		t.Errorf("period = %d hourly=%v", resp.PeriodDays, resp.Hourly)
	}
	if len(resp.Stats.Daily) != 24 {
		t.Errorf("hourly series has %d slots, want 24", len(resp.Stats.Daily))
	}
	if resp.Stats.TotalRenders != 1 {
		t.Errorf("TotalRenders = %d, want 1", resp.Stats.TotalRenders)
	}
}
