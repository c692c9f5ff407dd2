package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	cachedAt time.Time
	text     string
}

// Cache is an in-process weather answer cache. Entries are checked lazily
// against the TTL and overwritten on refresh; nothing is evicted.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.cachedAt) >= c.ttl {
		return "", false
	}
	return e.text, true
}

func (c *Cache) Set(_ context.Context, key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{cachedAt: c.now(), text: text}
}
