package brandsite

import (
	"database/sql"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested draft does not exist.
var ErrNotFound = sql.ErrNoRows

// DraftCache is an in-memory cache of published drafts with TTL. Only draft
// inputs are cached; rendered posters are not.
type DraftCache struct {
	mu      sync.RWMutex
	drafts  []Draft
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewDraftCache creates a DraftCache backed by the given Store.
func NewDraftCache(s *Store, ttl time.Duration) *DraftCache {
	return &DraftCache{store: s, ttl: ttl}
}

func (c *DraftCache) valid() bool {
	return c.drafts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *DraftCache) Invalidate() {
	c.mu.Lock()
	c.drafts = nil
	c.mu.Unlock()
}

func (c *DraftCache) load() error {
	if c.valid() {
		return nil
	}
	drafts, err := c.store.ListPublished()
	if err != nil {
		return err
	}
	if drafts == nil {
		drafts = []Draft{}
	}
	c.drafts = drafts
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached drafts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *DraftCache) ensureLoaded() ([]Draft, error) {
	c.mu.RLock()
	if c.valid() {
		drafts := c.drafts
		c.mu.RUnlock()
		return drafts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.drafts, nil
}

// ListPublished returns published drafts.
func (c *DraftCache) ListPublished() ([]Draft, error) {
	return c.ensureLoaded()
}

// GetPublished returns a single published draft by slug. A slug missing
// from the cache is looked up in the store before reporting ErrNotFound.
func (c *DraftCache) GetPublished(slug string) (Draft, error) {
	drafts, err := c.ensureLoaded()
	if err != nil {
		return Draft{}, err
	}
	for _, d := range drafts {
		if d.Slug == slug {
			return d, nil
		}
	}
	return c.store.GetPublished(slug)
}
