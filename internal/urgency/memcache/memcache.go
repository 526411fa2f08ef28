// Package memcache provides an in-process implementation of urgency.Cache.
package memcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/linnemanlabs/urgency/internal/urgency"
)

// Cache holds results in memory for the life of the process. With a zero
// MaxEntries it never evicts; otherwise the least recently used entry is
// dropped once the bound is exceeded.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]urgency.Result // unbounded mode

	bounded *lru.Cache[string, urgency.Result]
}

// New initializes a Cache. maxEntries <= 0 means unbounded.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		return &Cache{entries: make(map[string]urgency.Result)}
	}
	// lru.New only fails for a non-positive size
	l, _ := lru.New[string, urgency.Result](maxEntries)
	return &Cache{bounded: l}
}

// Get returns the result stored under key.
func (c *Cache) Get(_ context.Context, key string) (urgency.Result, bool, error) {
	if c.bounded != nil {
		r, ok := c.bounded.Get(key)
		return r, ok, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok, nil
}

// Put stores r under key, replacing any previous value.
func (c *Cache) Put(_ context.Context, key string, r urgency.Result) error {
	if c.bounded != nil {
		c.bounded.Add(key, r)
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(context.Context) error {
	if c.bounded != nil {
		c.bounded.Purge()
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
