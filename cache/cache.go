package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a small in-memory TTL cache. Expired entries are dropped on
// access and when the cache is full, so no background goroutine is needed.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	store      map[string]entry[V]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries values for ttl each.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache[V]{
		store:      make(map[string]entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the value for key if present and younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		delete(c.store, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. When full, expired entries are purged first;
// if none expired, an arbitrary entry is evicted.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k, e := range c.store {
			if now.Sub(e.createdAt) > c.ttl {
				delete(c.store, k)
			}
		}
		// Map iteration order is random.
		if len(c.store) >= c.maxEntries {
			for k := range c.store {
				delete(c.store, k)
				break
			}
		}
	}

	c.store[key] = entry[V]{value: value, createdAt: now}
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}
