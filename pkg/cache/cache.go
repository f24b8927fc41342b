package cache

import (
	"sync"
	"time"
)

// TTLCache is a best-effort expiring key set used to suppress duplicate events.
// Implementations may lose entries at any time (e.g. on restart); callers must
// not rely on it for correctness.
type TTLCache interface {
	// SetIfAbsent records key and returns true if it was not already present.
	SetIfAbsent(key string) bool
	// Contains reports whether key is present and not expired.
	Contains(key string) bool
	// Stop releases any background resources. The cache must not be used
	// after Stop.
	Stop()
}

// memoryCache is an in-process TTLCache backed by a map with periodic eviction
type memoryCache struct {
	ttl      time.Duration
	mu       sync.Mutex
	entries  map[string]time.Time
	stopChan chan struct{}
}

// NewMemoryCache creates an in-process TTLCache. A background janitor evicts
// expired entries every ttl interval until Stop is called.
func NewMemoryCache(ttl time.Duration) TTLCache {
	c := &memoryCache{
		ttl:      ttl,
		entries:  make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *memoryCache) SetIfAbsent(key string) bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if exp, ok := c.entries[key]; ok && now.Before(exp) {
		return false
	}
	c.entries[key] = now.Add(c.ttl)
	return true
}

func (c *memoryCache) Contains(key string) bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.entries[key]
	return ok && now.Before(exp)
}

// Stop stops the janitor goroutine
func (c *memoryCache) Stop() {
	close(c.stopChan)
}

func (c *memoryCache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, exp := range c.entries {
				if now.After(exp) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
