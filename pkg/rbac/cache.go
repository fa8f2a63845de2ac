package rbac

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache stores flattened permission sets per role. Implementations must be
// safe for concurrent use. Concurrent misses for the same role may
// recompute redundantly; resolution is idempotent so no coalescing is done.
type Cache interface {
	// Get retrieves the cached permission keys for a role.
	Get(ctx context.Context, roleID uuid.UUID) ([]string, bool)

	// Set stores the permission keys with the given TTL.
	Set(ctx context.Context, roleID uuid.UUID, keys []string, ttl time.Duration)

	// Delete removes a single role's entry.
	Delete(ctx context.Context, roleID uuid.UUID)

	// Flush removes every entry. Used for conservative invalidation when a
	// mutation may affect roles beyond the one mutated.
	Flush(ctx context.Context)

	// Close releases any resources held by the cache.
	Close() error
}

type memoryCacheItem struct {
	keys      []string
	expiresAt time.Time
}

// memoryCache is the default in-process cache implementation.
type memoryCache struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]memoryCacheItem
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

// NewMemoryCache creates an in-memory cache with automatic cleanup of
// expired entries.
func NewMemoryCache() Cache {
	c := &memoryCache{
		items: make(map[uuid.UUID]memoryCacheItem),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go c.cleanup()

	return c
}

func (c *memoryCache) Get(ctx context.Context, roleID uuid.UUID) ([]string, bool) {
	c.mu.RLock()
	item, exists := c.items[roleID]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.Delete(ctx, roleID)
		return nil, false
	}
	return slices.Clone(item.keys), true
}

func (c *memoryCache) Set(ctx context.Context, roleID uuid.UUID, keys []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[roleID] = memoryCacheItem{
		keys:      slices.Clone(keys),
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *memoryCache) Delete(ctx context.Context, roleID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, roleID)
}

func (c *memoryCache) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

func (c *memoryCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, id)
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noOpCache disables caching. Useful in tests that must observe every
// store read.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache {
	return &noOpCache{}
}

func (noOpCache) Get(ctx context.Context, roleID uuid.UUID) ([]string, bool) { return nil, false }

func (noOpCache) Set(ctx context.Context, roleID uuid.UUID, keys []string, ttl time.Duration) {}

func (noOpCache) Delete(ctx context.Context, roleID uuid.UUID) {}

func (noOpCache) Flush(ctx context.Context) {}

func (noOpCache) Close() error { return nil }
