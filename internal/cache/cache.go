// Package cache holds responses already received this session, keyed by
// the exact trimmed user input. Identical phrasing never pays for a
// second network call, even though the composed prompt could differ
// between sends; the key is deliberately the raw input, not the prompt.
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is an in-memory, session-lifetime response cache. There is no
// eviction and no TTL; the scope is a single interactive session.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached response for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a response under key, replacing any previous value.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Do returns the cached response for key, or invokes fn exactly once to
// produce it. Concurrent callers with the same key share a single fn
// invocation; successful results are stored before Do returns.
func (c *Cache) Do(key string, fn func() (string, error)) (value string, cached bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have filled the
		// entry between the lookup and the flight starting.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		out, err := fn()
		if err != nil {
			return "", err
		}
		c.Put(key, out)
		return out, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}
