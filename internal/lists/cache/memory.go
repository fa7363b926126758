// Package cache implements the lookaside cache for list membership.
//
// Keys are "{list_type}:{value}" and hold one of two markers: present, or a
// tombstone written when a value is removed while its durable delete is still
// queued. The cache is advisory; the durable store remains the record.
package cache

import (
	"context"
	"sync"
	"time"

	"listmgmt/internal/lists/models"
)

// DefaultTombstoneTTL outlives any healthy durability queue backlog.
const DefaultTombstoneTTL = 10 * time.Minute

type entry struct {
	state     models.CacheState
	expiresAt time.Time // zero for no expiry
}

// InMemoryCache is a process-local cache with the same atomicity contract as
// RedisCache. Used for single-node development and tests.
type InMemoryCache struct {
	mu           sync.Mutex
	entries      map[string]entry
	tombstoneTTL time.Duration
	now          func() time.Time
}

// NewInMemory creates an empty in-memory cache.
func NewInMemory(tombstoneTTL time.Duration) *InMemoryCache {
	return &InMemoryCache{
		entries:      make(map[string]entry),
		tombstoneTTL: tombstoneTTL,
		now:          time.Now,
	}
}

// stateLocked returns the live state of key, expiring stale tombstones.
func (c *InMemoryCache) stateLocked(key string) models.CacheState {
	e, ok := c.entries[key]
	if !ok {
		return models.CacheMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return models.CacheMiss
	}
	return e.state
}

func (c *InMemoryCache) Lookup(_ context.Context, key string) (models.CacheState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(key), nil
}

func (c *InMemoryCache) Claim(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateLocked(key) == models.CachePresent {
		return false, nil
	}
	c.entries[key] = entry{state: models.CachePresent}
	return true, nil
}

func (c *InMemoryCache) Backfill(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateLocked(key) == models.CacheMiss {
		c.entries[key] = entry{state: models.CachePresent}
	}
	return nil
}

func (c *InMemoryCache) Tombstone(_ context.Context, key string) (models.CacheState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.stateLocked(key)
	e := entry{state: models.CacheTombstone}
	if c.tombstoneTTL > 0 {
		e.expiresAt = c.now().Add(c.tombstoneTTL)
	}
	c.entries[key] = e
	return prev, nil
}

func (c *InMemoryCache) Restore(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{state: models.CachePresent}
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// Len returns the number of live entries.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if c.stateLocked(k) != models.CacheMiss {
			n++
		}
	}
	return n
}
