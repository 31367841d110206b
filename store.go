package brandsite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/brandsite/poster"
)

// ErrSlugTaken is returned when a draft is saved with another draft's slug.
var ErrSlugTaken = errors.New("slug already in use")

// Store wraps a SQLite database and provides CRUD operations for drafts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    mode TEXT NOT NULL,
    title TEXT NOT NULL,
    subtitle TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    background TEXT NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '[]',
    published INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS drafts_published_updated ON drafts (published, updated_at DESC);
`)
	return err
}

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const draftColumns = `id, slug, mode, title, subtitle, body, background, images, published, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (Draft, error) {
	var (
		d                    Draft
		mode, images         string
		published            int
		createdAt, updatedAt string
	)
	if err := row.Scan(&d.ID, &d.Slug, &mode, &d.Title, &d.Subtitle, &d.Body, &d.Background,
		&images, &published, &createdAt, &updatedAt); err != nil {
		return Draft{}, err
	}
	d.Mode = poster.Mode(mode)
	d.Published = published == 1
	if err := json.Unmarshal([]byte(images), &d.Images); err != nil {
		return Draft{}, fmt.Errorf("draft %s: decode images: %w", d.ID, err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return d, nil
}

func (s *Store) queryDrafts(query string, args ...any) ([]Draft, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// ListPublished returns published drafts, most recently updated first.
func (s *Store) ListPublished() ([]Draft, error) {
	return s.queryDrafts(`SELECT ` + draftColumns + ` FROM drafts WHERE published = 1 ORDER BY updated_at DESC`)
}

// ListDrafts returns every draft, published or not, most recently updated first.
func (s *Store) ListDrafts() ([]Draft, error) {
	return s.queryDrafts(`SELECT ` + draftColumns + ` FROM drafts ORDER BY updated_at DESC`)
}

// GetPublished returns a single published draft by slug.
func (s *Store) GetPublished(slug string) (Draft, error) {
	return scanDraft(s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE slug = ? AND published = 1`, slug))
}

// GetDraft returns a draft by ID regardless of published status (for admin).
func (s *Store) GetDraft(id string) (Draft, error) {
	return scanDraft(s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id))
}

// SaveDraft inserts d when it has no ID and updates it otherwise. It returns
// the stored draft and the change event kind.
func (s *Store) SaveDraft(d Draft) (Draft, string, error) {
	images := d.Images
	if images == nil {
		images = []poster.Image{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return Draft{}, "", fmt.Errorf("encode images: %w", err)
	}
	published := 0
	if d.Published {
		published = 1
	}
	now := time.Now().UTC()
	d.UpdatedAt = now

	if d.ID == "" {
		d.ID = uuid.NewString()
		d.CreatedAt = now
		_, err = s.db.Exec(`INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Slug, string(d.Mode), d.Title, d.Subtitle, d.Body, d.Background,
			string(imagesJSON), published, formatTime(now), formatTime(now))
		if err != nil {
			return Draft{}, "", slugError(err)
		}
		return d, EventInsert, nil
	}

	res, err := s.db.Exec(`UPDATE drafts SET slug = ?, mode = ?, title = ?, subtitle = ?, body = ?, background = ?, images = ?, published = ?, updated_at = ? WHERE id = ?`,
		d.Slug, string(d.Mode), d.Title, d.Subtitle, d.Body, d.Background,
		string(imagesJSON), published, formatTime(now), d.ID)
	if err != nil {
		return Draft{}, "", slugError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Draft{}, "", ErrNotFound
	}
	stored, err := s.GetDraft(d.ID)
	if err != nil {
		return Draft{}, "", err
	}
	return stored, EventUpdate, nil
}

// DeleteDraft removes a draft by ID.
func (s *Store) DeleteDraft(id string) error {
	res, err := s.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func slugError(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed: drafts.slug") {
		return ErrSlugTaken
	}
	return err
}
