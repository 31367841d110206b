package analytics

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically and is understood by SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05"

// Store persists render records in their own SQLite database.
type Store struct {
	db   *sql.DB
	salt string
}

// NewStore opens (or creates) the analytics database at dbPath and loads the
// per-installation hashing salt, generating it on first use.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.loadSalt(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id TEXT NOT NULL,
			device TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT '',
			images INTEGER NOT NULL DEFAULT 0,
			status INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_renders_timestamp ON renders(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version >= currentSchemaVersion {
		return nil
	}
	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

func (s *Store) loadSalt() error {
	v, err := s.GetSetting("hash_salt")
	if err != nil {
		return fmt.Errorf("read hash salt: %w", err)
	}
	if v == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		v = hex.EncodeToString(b)
		if err := s.SetSetting("hash_salt", v); err != nil {
			return fmt.Errorf("store hash salt: %w", err)
		}
	}
	s.salt = v
	return nil
}

// ClientID returns the anonymous identifier for a client.
func (s *Store) ClientID(ip, userAgent string) string {
	return clientID(s.salt, ip, userAgent)
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveRender stores a render record.
func (s *Store) SaveRender(ctx context.Context, r Render) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO renders
		(client_id, device, mode, images, status, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ClientID, r.Device, r.Mode, r.Images, r.Status, r.DurationMS,
		r.Timestamp.UTC().Format(timeLayout))
	return err
}

// GetStats aggregates renders in [from, to). hourly and monthly pick the
// bucket size of the Daily series; the default is one bucket per day.
func (s *Store) GetStats(ctx context.Context, from, to time.Time, hourly, monthly bool) (*Stats, error) {
	stats := &Stats{
		Period:   from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		Modes:    []DimensionStat{},
		Devices:  []DimensionStat{},
		Statuses: []DimensionStat{},
		Daily:    []DailyCount{},
	}
	lo, hi := from.UTC().Format(timeLayout), to.UTC().Format(timeLayout)

	bucket := "%Y-%m-%d"
	switch {
	case hourly:
		bucket = "%Y-%m-%d %H:00"
	case monthly:
		bucket = "%Y-%m"
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	run("totals", func() error {
		var avg float64
		var total, failures, clients int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(status >= 400), 0),
			COUNT(DISTINCT client_id), COALESCE(AVG(duration_ms), 0)
			FROM renders WHERE timestamp >= ? AND timestamp < ?`, lo, hi).
			Scan(&total, &failures, &clients, &avg)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.TotalRenders, stats.Failures, stats.UniqueClients = total, failures, clients
		stats.AvgDuration = int(avg)
		mu.Unlock()
		return nil
	})
	run("modes", func() error {
		rows, err := s.breakdown(ctx, `CASE WHEN mode = '' THEN 'invalid' ELSE mode END`, lo, hi)
		if err == nil {
			mu.Lock()
			stats.Modes = rows
			mu.Unlock()
		}
		return err
	})
	run("devices", func() error {
		rows, err := s.breakdown(ctx, `device`, lo, hi)
		if err == nil {
			mu.Lock()
			stats.Devices = rows
			mu.Unlock()
		}
		return err
	})
	run("statuses", func() error {
		rows, err := s.breakdown(ctx, `CAST(status AS TEXT)`, lo, hi)
		if err == nil {
			mu.Lock()
			stats.Statuses = rows
			mu.Unlock()
		}
		return err
	})
	run("daily", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT strftime(?, timestamp) AS d, COUNT(*)
			FROM renders WHERE timestamp >= ? AND timestamp < ?
			GROUP BY d ORDER BY d`, bucket, lo, hi)
		if err != nil {
			return err
		}
		defer rows.Close()
		var daily []DailyCount
		for rows.Next() {
			var dc DailyCount
			if err := rows.Scan(&dc.Date, &dc.Renders); err != nil {
				return err
			}
			daily = append(daily, dc)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		mu.Lock()
		if daily != nil {
			stats.Daily = daily
		}
		mu.Unlock()
		return nil
	})

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

func (s *Store) breakdown(ctx context.Context, expr, lo, hi string) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+expr+` AS name, COUNT(*) AS n
		FROM renders WHERE timestamp >= ? AND timestamp < ?
		GROUP BY name ORDER BY n DESC, name LIMIT 10`, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CleanupOldRenders removes renders older than the retention period.
func (s *Store) CleanupOldRenders(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(timeLayout)
	if _, err := s.db.Exec(`DELETE FROM renders WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup renders: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs periodic cleanup of old data. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, logger *log.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldRenders(retentionDays); err != nil {
					logger.Error("analytics cleanup", "err", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
