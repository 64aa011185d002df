package briefing

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eclewis/wxbrief/pkg/logger"
)

// Cache is a TTL cache for assembled briefings, keyed by the
// normalized airport code tuple. Entries expire on their own and are
// never invalidated early. The clock is injected so tests can advance
// time deterministically.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock
	logger     *logger.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// NewCache creates a new briefing cache
func NewCache(ttl time.Duration, maxEntries int, clock clockwork.Clock, log *logger.Logger) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		logger:     log.Named("briefing-cache"),
		entries:    make(map[string]cacheEntry),
	}
}

// Get returns the cached briefing for the key, or nil if absent or
// expired.
func (c *Cache) Get(key string) *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.result
}

// Set stores a briefing under the key with the configured TTL
func (c *Cache) Set(key string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	// Drop expired entries before enforcing the size cap
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	// Still full: evict the entry closest to expiry
	if len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestExpiry time.Time
		first := true
		for k, e := range c.entries {
			if first || e.expiresAt.Before(oldestExpiry) {
				oldestKey, oldestExpiry = k, e.expiresAt
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}

	expiresAt := now.Add(c.ttl)
	c.entries[key] = cacheEntry{result: result, expiresAt: expiresAt}

	c.logger.Debug("Briefing cached",
		logger.String("key", key),
		logger.Time("expires_at", expiresAt))
}

// Len returns the number of entries currently held, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
