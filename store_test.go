package brandsite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/brandsite/poster"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveDraftInsertsAndGets(t *testing.T) {
	s := setupTestStore(t)

	saved, event, err := s.SaveDraft(Draft{
		Slug:     "spring-launch",
		Mode:     poster.ModeContent,
		Title:    "Spring launch",
		Subtitle: "What is new",
		Body:     "# Intro\nFirst paragraph",
		Images:   []poster.Image{{Data: "data:image/png;base64,AAAA", Position: 1}},
	})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if event != EventInsert {
		t.Errorf("event = %q, want %q", event, EventInsert)
	}
	if saved.ID == "" {
		t.Fatal("saved draft should have an ID")
	}

	got, err := s.GetDraft(saved.ID)
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.Slug != "spring-launch" {
		t.Errorf("Slug = %q, want %q", got.Slug, "spring-launch")
	}
	if got.Mode != poster.ModeContent {
		t.Errorf("Mode = %q, want %q", got.Mode, poster.ModeContent)
	}
	if got.Body != "# Intro\nFirst paragraph" {
		t.Errorf("Body = %q", got.Body)
	}
	if len(got.Images) != 1 || got.Images[0].Position != 1 {
		t.Errorf("Images = %+v, want one image at position 1", got.Images)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %v %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestSaveDraftUpdates(t *testing.T) {
	s := setupTestStore(t)

	saved, _, err := s.SaveDraft(Draft{Slug: "a", Mode: poster.ModeCover, Title: "Old"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	saved.Title = "New"
	updated, event, err := s.SaveDraft(saved)
	if err != nil {
		t.Fatalf("SaveDraft update failed: %v", err)
	}
	if event != EventUpdate {
		t.Errorf("event = %q, want %q", event, EventUpdate)
	}
	if updated.Title != "New" {
		t.Errorf("Title = %q, want %q", updated.Title, "New")
	}
	if !updated.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", saved.CreatedAt, updated.CreatedAt)
	}
}

func TestSaveDraftUpdateMissing(t *testing.T) {
	s := setupTestStore(t)
	_, _, err := s.SaveDraft(Draft{ID: "nope", Slug: "a", Mode: poster.ModeCover, Title: "T"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveDraftSlugTaken(t *testing.T) {
	s := setupTestStore(t)
	if _, _, err := s.SaveDraft(Draft{Slug: "dup", Mode: poster.ModeCover, Title: "One"}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	_, _, err := s.SaveDraft(Draft{Slug: "dup", Mode: poster.ModeCover, Title: "Two"})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("err = %v, want ErrSlugTaken", err)
	}
}

func TestListPublished(t *testing.T) {
	s := setupTestStore(t)
	drafts := []Draft{
		{Slug: "pub", Mode: poster.ModeCover, Title: "Published", Published: true},
		{Slug: "hidden", Mode: poster.ModeCover, Title: "Hidden"},
	}
	for _, d := range drafts {
		if _, _, err := s.SaveDraft(d); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}
	}

	published, err := s.ListPublished()
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(published) != 1 || published[0].Slug != "pub" {
		t.Errorf("ListPublished = %+v, want only pub", published)
	}

	all, err := s.ListDrafts()
	if err != nil {
		t.Fatalf("ListDrafts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListDrafts returned %d drafts, want 2", len(all))
	}

	if _, err := s.GetPublished("hidden"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPublished(hidden) err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPublished("pub"); err != nil {
		t.Errorf("GetPublished(pub) failed: %v", err)
	}
}

func TestDeleteDraft(t *testing.T) {
	s := setupTestStore(t)
	saved, _, err := s.SaveDraft(Draft{Slug: "gone", Mode: poster.ModeCover, Title: "Gone"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if err := s.DeleteDraft(saved.ID); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, err := s.GetDraft(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDraft after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDraft(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteDraft err = %v, want ErrNotFound", err)
	}
}

func TestDraftCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	c := NewDraftCache(s, time.Hour)

	got, err := c.ListPublished()
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty cache, got %d", len(got))
	}

	if _, _, err := s.SaveDraft(Draft{Slug: "new", Mode: poster.ModeCover, Title: "New", Published: true}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if got, _ := c.ListPublished(); len(got) != 0 {
		t.Errorf("cache should still be stale, got %d drafts", len(got))
	}

	c.Invalidate()
	if got, _ := c.ListPublished(); len(got) != 1 {
		t.Errorf("after Invalidate got %d drafts, want 1", len(got))
	}
	if _, err := c.GetPublished("new"); err != nil {
		t.Errorf("GetPublished failed: %v", err)
	}
	if _, err := c.GetPublished("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPublished(missing) err = %v, want ErrNotFound", err)
	}
}

func TestFormatTimeSortsAsText(t *testing.T) {
	a := time.Date(2026, 3, 1, 10, 0, 5, 100_000_000, time.UTC)
	b := time.Date(2026, 3, 1, 10, 0, 5, 120_000_000, time.UTC)
	if fa, fb := formatTime(a), formatTime(b); fa >= fb {
		t.Errorf("formatTime(%v) = %q should sort before %q", a, fa, fb)
	}
	got, err := time.Parse(time.RFC3339Nano, formatTime(b))
	if err != nil || !got.Equal(b) {
		t.Errorf("round trip = %v, %v; want %v", got, err, b)
	}
}

func TestListDraftsOrdersWithinOneSecond(t *testing.T) {
	s := setupTestStore(t)
	older, _, err := s.SaveDraft(Draft{Slug: "older", Mode: poster.ModeCover, Title: "Older"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	newer, _, err := s.SaveDraft(Draft{Slug: "newer", Mode: poster.ModeCover, Title: "Newer"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	// A fraction ending in zero is where variable-width timestamps misorder.
	base := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	stamps := map[string]time.Time{
		older.ID: base.Add(100 * time.Millisecond),
		newer.ID: base.Add(120 * time.Millisecond),
	}
	for id, ts := range stamps {
		if _, err := s.db.Exec(`UPDATE drafts SET updated_at = ? WHERE id = ?`, formatTime(ts), id); err != nil {
			t.Fatalf("update timestamp: %v", err)
		}
	}

	got, err := s.ListDrafts()
	if err != nil {
		t.Fatalf("ListDrafts failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("order = %v, want newer then older", []string{got[0].Slug, got[1].Slug})
	}
}

func TestDraftCacheFallsBackToStore(t *testing.T) {
	s := setupTestStore(t)
	c := NewDraftCache(s, time.Hour)
	if _, err := c.ListPublished(); err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}

	if _, _, err := s.SaveDraft(Draft{Slug: "late", Mode: poster.ModeCover, Title: "Late", Published: true}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if _, _, err := s.SaveDraft(Draft{Slug: "hidden", Mode: poster.ModeCover, Title: "Hidden"}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	d, err := c.GetPublished("late")
	if err != nil {
		t.Fatalf("GetPublished(late) failed: %v", err)
	}
	if d.Title != "Late" {
		t.Errorf("Title = %q, want Late", d.Title)
	}
	if _, err := c.GetPublished("hidden"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPublished(hidden) err = %v, want ErrNotFound", err)
	}
}
