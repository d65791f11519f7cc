package pricing

import (
	"sync"
	"time"
)

// quoteCache holds daily histories per symbol with a fixed TTL. A zero or
// negative TTL disables caching.
type quoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	rows     []dailyRow
	storedAt time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *quoteCache) get(symbol string) ([]dailyRow, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok || time.Since(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.rows, true
}

func (c *quoteCache) put(symbol string, rows []dailyRow) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{rows: rows, storedAt: time.Now()}
	c.mu.Unlock()
}

// invalidate drops a symbol's cached history.
func (c *quoteCache) invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}
