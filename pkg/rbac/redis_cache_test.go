package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/rbac"
)

func newRedisCache(t *testing.T, opts ...rbac.RedisCacheOption) (*rbac.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck

	return rbac.NewRedisCache(client, opts...), srv
}

func TestRedisCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set and get round trip", func(t *testing.T) {
		t.Parallel()

		cache, _ := newRedisCache(t)
		roleID := uuid.New()

		cache.Set(ctx, roleID, []string{"issues:create", "issues:view"}, time.Minute)

		keys, ok := cache.Get(ctx, roleID)
		require.True(t, ok)
		assert.Equal(t, []string{"issues:create", "issues:view"}, keys)
	})

	t.Run("miss on unknown role", func(t *testing.T) {
		t.Parallel()

		cache, _ := newRedisCache(t)
		_, ok := cache.Get(ctx, uuid.New())
		assert.False(t, ok)
	})

	t.Run("entries expire via redis ttl", func(t *testing.T) {
		t.Parallel()

		cache, srv := newRedisCache(t)
		roleID := uuid.New()

		cache.Set(ctx, roleID, []string{"issues:view"}, time.Minute)
		srv.FastForward(2 * time.Minute)

		_, ok := cache.Get(ctx, roleID)
		assert.False(t, ok)
	})

	t.Run("delete removes a single entry", func(t *testing.T) {
		t.Parallel()

		cache, _ := newRedisCache(t)
		a, b := uuid.New(), uuid.New()

		cache.Set(ctx, a, []string{"a"}, time.Minute)
		cache.Set(ctx, b, []string{"b"}, time.Minute)

		cache.Delete(ctx, a)

		_, ok := cache.Get(ctx, a)
		assert.False(t, ok)
		_, ok = cache.Get(ctx, b)
		assert.True(t, ok)
	})

	t.Run("flush only touches prefixed keys", func(t *testing.T) {
		t.Parallel()

		cache, srv := newRedisCache(t)
		roleID := uuid.New()

		cache.Set(ctx, roleID, []string{"issues:view"}, time.Minute)
		require.NoError(t, srv.Set("unrelated:key", "kept"))

		cache.Flush(ctx)

		_, ok := cache.Get(ctx, roleID)
		assert.False(t, ok)

		val, err := srv.Get("unrelated:key")
		require.NoError(t, err)
		assert.Equal(t, "kept", val)
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()

		cache, srv := newRedisCache(t, rbac.WithRedisKeyPrefix("custom:"))
		roleID := uuid.New()

		cache.Set(ctx, roleID, []string{"issues:view"}, time.Minute)
		assert.True(t, srv.Exists("custom:"+roleID.String()))
	})

	t.Run("corrupt payload is a miss", func(t *testing.T) {
		t.Parallel()

		cache, srv := newRedisCache(t)
		roleID := uuid.New()
		require.NoError(t, srv.Set(rbac.DefaultRedisKeyPrefix+roleID.String(), "{not json"))

		_, ok := cache.Get(ctx, roleID)
		assert.False(t, ok)
	})

	t.Run("unreachable redis degrades to a miss", func(t *testing.T) {
		t.Parallel()

		cache, srv := newRedisCache(t)
		roleID := uuid.New()
		cache.Set(ctx, roleID, []string{"issues:view"}, time.Minute)

		srv.Close()

		_, ok := cache.Get(ctx, roleID)
		assert.False(t, ok)
	})
}
