package market

import (
	"sync"
	"time"
)

// quoteCache is an in-memory TTL cache for quotes. The clock is injectable
// so expiry can be tested without sleeping.
type quoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	quote  *Quote
	expiry time.Time
}

func newQuoteCache(ttl time.Duration, now func() time.Time) *quoteCache {
	if now == nil {
		now = time.Now
	}
	return &quoteCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// get returns the cached quote for symbol if it has not expired.
func (c *quoteCache) get(symbol string) (*Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || c.now().After(entry.expiry) {
		return nil, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(symbol string, quote *Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = cacheEntry{
		quote:  quote,
		expiry: c.now().Add(c.ttl),
	}
}

// cleanStale drops expired entries and reports how many were removed.
func (c *quoteCache) cleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for symbol, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, symbol)
			removed++
		}
	}
	return removed
}
