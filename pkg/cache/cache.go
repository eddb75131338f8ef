package cache

import (
	"sync"
	"time"
)

// Cache is a simple in-memory TTL cache. It is injected into services
// instead of living as a package-level singleton so tests can construct
// isolated instances and control the clock.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// New creates a cache with the given default TTL
func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// NewWithClock creates a cache with an injected clock for deterministic tests
func NewWithClock(defaultTTL time.Duration, now func() time.Time) *Cache {
	c := New(defaultTTL)
	c.now = now
	return c
}

// Get returns the cached value for key, or false if missing or expired.
// Expired entries are removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Set stores a value with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge removes all entries
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of entries, including any not yet evicted
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
