package dataset

import (
	"sync"

	"ecomlytics/pkg/contracts/domain"
)

type cacheKey struct {
	version string
	window  domain.Window
}

// Cache memoizes assembled analysis tables keyed by (raw data version,
// window), so a dashboard re-requesting the same window skips the join.
// Assembly is always a full recompute from the raw sets, so invalidation
// is simply dropping entries of superseded versions.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey][]domain.AnalysisRow
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey][]domain.AnalysisRow)}
}

// Get returns the memoized rows for the version and window, if present
func (c *Cache) Get(version string, window domain.Window) ([]domain.AnalysisRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, ok := c.entries[cacheKey{version, window}]
	return rows, ok
}

// Put memoizes assembled rows
func (c *Cache) Put(version string, window domain.Window, rows []domain.AnalysisRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{version, window}] = rows
}

// PurgeExcept drops every entry not belonging to version. Called after a
// raw data reload.
func (c *Cache) PurgeExcept(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.version != version {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of memoized windows
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
