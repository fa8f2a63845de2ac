package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/rbac"
)

func mustCreateRole(t *testing.T, store *rbac.MemoryStore, role rbac.Role) rbac.Role {
	t.Helper()
	created, err := store.CreateRole(context.Background(), role)
	require.NoError(t, err)
	return created
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("direct permissions only", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		developer := mustCreateRole(t, store, rbac.Role{
			Name: "Developer",
			Permissions: []rbac.Permission{
				{Resource: "issues", Action: "view"},
				{Resource: "issues", Action: "create"},
			},
		})

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))

		ok, err := resolver.HasPermission(ctx, developer.ID, "issues", "create")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = resolver.HasPermission(ctx, developer.ID, "issues", "delete")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("inherited permissions accumulate through the parent chain", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		viewer := mustCreateRole(t, store, rbac.Role{
			Name:        "Viewer",
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})
		member := mustCreateRole(t, store, rbac.Role{
			Name:        "Member",
			ParentID:    &viewer.ID,
			Permissions: []rbac.Permission{{Resource: "issues", Action: "create"}},
		})
		admin := mustCreateRole(t, store, rbac.Role{
			Name:        "Admin",
			ParentID:    &member.ID,
			Permissions: []rbac.Permission{{Resource: "roles", Action: "manage"}},
		})

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))
		set, err := resolver.Resolve(ctx, admin.ID)
		require.NoError(t, err)

		assert.Equal(t, []string{"issues:create", "issues:view", "roles:manage"}, set.Keys())
	})

	t.Run("duplicate permissions deduplicate", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		parent := mustCreateRole(t, store, rbac.Role{
			Name:        "Parent",
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})
		child := mustCreateRole(t, store, rbac.Role{
			Name:        "Child",
			ParentID:    &parent.ID,
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))
		set, err := resolver.Resolve(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"issues:view"}, set.Keys())
	})

	t.Run("inheritance cycle stops with partial result", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		idA, idB := uuid.New(), uuid.New()
		mustCreateRole(t, store, rbac.Role{
			ID:          idA,
			Name:        "A",
			ParentID:    &idB,
			Permissions: []rbac.Permission{{Resource: "a", Action: "do"}},
		})
		mustCreateRole(t, store, rbac.Role{
			ID:          idB,
			Name:        "B",
			ParentID:    &idA,
			Permissions: []rbac.Permission{{Resource: "b", Action: "do"}},
		})

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))
		set, err := resolver.Resolve(ctx, idA)
		require.NoError(t, err)
		assert.Equal(t, []string{"a:do", "b:do"}, set.Keys())
	})

	t.Run("depth limit stops after ten levels", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		const chain = 12

		ids := make([]uuid.UUID, chain)
		for i := range ids {
			ids[i] = uuid.New()
		}
		// ids[0] is the requested role, each role's parent is the next.
		for i := 0; i < chain; i++ {
			role := rbac.Role{
				ID:          ids[i],
				Name:        string(rune('A' + i)),
				Permissions: []rbac.Permission{{Resource: "level", Action: string(rune('a' + i))}},
			}
			if i < chain-1 {
				role.ParentID = &ids[i+1]
			}
			mustCreateRole(t, store, role)
		}

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))
		set, err := resolver.Resolve(ctx, ids[0])
		require.NoError(t, err)

		// Levels 1..10 accumulate, 11 and 12 are cut off.
		assert.Len(t, set, 10)
		assert.True(t, set.Has("level", "a"))
		assert.True(t, set.Has("level", "j"))
		assert.False(t, set.Has("level", "k"))
		assert.False(t, set.Has("level", "l"))
	})

	t.Run("dangling parent degrades to partial result", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		missing := uuid.New()
		role := mustCreateRole(t, store, rbac.Role{
			Name:        "Orphaned",
			ParentID:    &missing,
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})

		resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))
		set, err := resolver.Resolve(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"issues:view"}, set.Keys())
	})

	t.Run("unknown role fails", func(t *testing.T) {
		t.Parallel()

		resolver := rbac.NewResolver(rbac.NewMemoryStore(), rbac.WithCache(rbac.NewNoOpCache()))
		_, err := resolver.Resolve(ctx, uuid.New())
		assert.ErrorIs(t, err, rbac.ErrRoleNotFound)
	})
}

func TestResolver_Caching(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cache hit skips the store", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		role := mustCreateRole(t, store, rbac.Role{
			Name:        "Cached",
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})

		resolver := rbac.NewResolver(store)
		t.Cleanup(func() { resolver.Close() }) //nolint:errcheck

		_, err := resolver.Resolve(ctx, role.ID)
		require.NoError(t, err)

		// Mutate behind the resolver's back; the cached set must win
		// until invalidated.
		_, err = store.UpdateRolePermissions(ctx, role.ID, []rbac.Permission{{Resource: "issues", Action: "delete"}})
		require.NoError(t, err)

		ok, err := resolver.HasPermission(ctx, role.ID, "issues", "view")
		require.NoError(t, err)
		assert.True(t, ok, "expected cached set before invalidation")

		resolver.Invalidate(ctx, role.ID)

		ok, err = resolver.HasPermission(ctx, role.ID, "issues", "view")
		require.NoError(t, err)
		assert.False(t, ok, "expected fresh set after invalidation")
	})

	t.Run("expired entry recomputes", func(t *testing.T) {
		t.Parallel()

		store := rbac.NewMemoryStore()
		role := mustCreateRole(t, store, rbac.Role{
			Name:        "ShortLived",
			Permissions: []rbac.Permission{{Resource: "issues", Action: "view"}},
		})

		resolver := rbac.NewResolver(store, rbac.WithCacheTTL(10*time.Millisecond))
		t.Cleanup(func() { resolver.Close() }) //nolint:errcheck

		_, err := resolver.Resolve(ctx, role.ID)
		require.NoError(t, err)

		_, err = store.UpdateRolePermissions(ctx, role.ID, []rbac.Permission{{Resource: "issues", Action: "delete"}})
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		ok, err := resolver.HasPermission(ctx, role.ID, "issues", "delete")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestResolver_HasAllHasAny(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := rbac.NewMemoryStore()
	role := mustCreateRole(t, store, rbac.Role{
		Name: "Developer",
		Permissions: []rbac.Permission{
			{Resource: "issues", Action: "view"},
			{Resource: "issues", Action: "create"},
		},
	})

	resolver := rbac.NewResolver(store, rbac.WithCache(rbac.NewNoOpCache()))

	t.Run("has all", func(t *testing.T) {
		t.Parallel()

		ok, err := resolver.HasAllPermissions(ctx, role.ID,
			rbac.Permission{Resource: "issues", Action: "view"},
			rbac.Permission{Resource: "issues", Action: "create"},
		)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = resolver.HasAllPermissions(ctx, role.ID,
			rbac.Permission{Resource: "issues", Action: "view"},
			rbac.Permission{Resource: "issues", Action: "delete"},
		)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("has any", func(t *testing.T) {
		t.Parallel()

		ok, err := resolver.HasAnyPermission(ctx, role.ID,
			rbac.Permission{Resource: "issues", Action: "delete"},
			rbac.Permission{Resource: "issues", Action: "view"},
		)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = resolver.HasAnyPermission(ctx, role.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
