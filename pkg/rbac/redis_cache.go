package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces cache keys in a shared Redis.
const DefaultRedisKeyPrefix = "rbac:perms:"

// RedisCache shares the permission cache between processes. TTL handling is
// delegated to Redis key expiry. The client is owned by the caller.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisKeyPrefix overrides the key prefix.
func WithRedisKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedisCache creates a Redis-backed permission cache.
func NewRedisCache(client redis.UniversalClient, opts ...RedisCacheOption) *RedisCache {
	if client == nil {
		panic("rbac: redis client cannot be nil")
	}

	c := &RedisCache{
		client: client,
		prefix: DefaultRedisKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(roleID uuid.UUID) string {
	return c.prefix + roleID.String()
}

// Get retrieves the cached permission keys. Any Redis failure is treated as
// a miss: resolution recomputes from the store, which is always correct.
func (c *RedisCache) Get(ctx context.Context, roleID uuid.UUID) ([]string, bool) {
	payload, err := c.client.Get(ctx, c.key(roleID)).Bytes()
	if err != nil {
		return nil, false
	}

	var keys []string
	if err := json.Unmarshal(payload, &keys); err != nil {
		return nil, false
	}
	return keys, true
}

// Set stores the permission keys with the given TTL.
func (c *RedisCache) Set(ctx context.Context, roleID uuid.UUID, keys []string, ttl time.Duration) {
	payload, err := json.Marshal(keys)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(roleID), payload, ttl)
}

// Delete removes a single role's entry.
func (c *RedisCache) Delete(ctx context.Context, roleID uuid.UUID) {
	c.client.Del(ctx, c.key(roleID))
}

// Flush removes every entry under the prefix.
func (c *RedisCache) Flush(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil && !errors.Is(err, context.Canceled) {
		// Leftover entries expire via TTL; nothing more to do here.
		return
	}
}

// Close is a no-op: the Redis client belongs to the caller.
func (c *RedisCache) Close() error {
	return nil
}
