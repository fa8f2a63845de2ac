package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Resolver computes a role's effective permissions by walking its
// parent-role chain, with TTL caching and defensive cycle and depth guards.
type Resolver struct {
	store    RoleStore
	cache    Cache
	ttl      time.Duration
	maxDepth int
	log      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithCacheTTL sets the lifetime of cached permission sets.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxInheritanceDepth bounds the parent-chain walk.
func WithMaxInheritanceDepth(depth int) ResolverOption {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithConfig applies the environment-driven settings.
func WithConfig(cfg Config) ResolverOption {
	return func(r *Resolver) {
		WithCacheTTL(cfg.CacheTTL)(r)
		WithMaxInheritanceDepth(cfg.MaxInheritanceDepth)(r)
	}
}

// WithResolverLogger sets the logger for configuration warnings.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a resolver backed by the role store. Defaults to an
// in-memory cache with a 5 minute TTL and a maximum inheritance depth of 10.
func NewResolver(store RoleStore, opts ...ResolverOption) *Resolver {
	if store == nil {
		panic("rbac: role store cannot be nil")
	}

	r := &Resolver{
		store:    store,
		ttl:      DefaultCacheTTL,
		maxDepth: DefaultMaxInheritanceDepth,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	return r
}

// Resolve returns the flattened, deduplicated permission set for the role,
// from cache when fresh. Inheritance cycles and over-deep chains are
// tolerated: the walk stops, logs a configuration warning and returns what
// was accumulated so far.
func (r *Resolver) Resolve(ctx context.Context, roleID uuid.UUID) (PermissionSet, error) {
	if keys, ok := r.cache.Get(ctx, roleID); ok {
		return setFromKeys(keys), nil
	}

	set := make(PermissionSet)
	visited := make(map[uuid.UUID]struct{})
	current := roleID

	for depth := 0; ; depth++ {
		if depth >= r.maxDepth {
			r.log.WarnContext(ctx, "role inheritance depth exceeded",
				slog.String("role_id", roleID.String()),
				slog.Int("max_depth", r.maxDepth),
			)
			break
		}
		if _, seen := visited[current]; seen {
			r.log.WarnContext(ctx, "role inheritance cycle detected",
				slog.String("role_id", roleID.String()),
				slog.String("cycle_at", current.String()),
			)
			break
		}
		visited[current] = struct{}{}

		role, err := r.store.GetRole(ctx, current)
		if err != nil {
			if depth == 0 {
				return nil, fmt.Errorf("resolve role %s: %w", roleID, err)
			}
			// Dangling parent reference: degrade to the permissions
			// accumulated so far rather than failing the check.
			r.log.WarnContext(ctx, "role parent chain broken",
				slog.String("role_id", roleID.String()),
				slog.String("missing", current.String()),
				slog.Any("error", err),
			)
			break
		}

		for _, p := range role.Permissions {
			set[p.Key()] = struct{}{}
		}

		if role.ParentID == nil {
			break
		}
		current = *role.ParentID
	}

	r.cache.Set(ctx, roleID, set.Keys(), r.ttl)
	return set, nil
}

// HasPermission reports whether the role's effective permissions include
// the resource/action pair.
func (r *Resolver) HasPermission(ctx context.Context, roleID uuid.UUID, resource, action string) (bool, error) {
	set, err := r.Resolve(ctx, roleID)
	if err != nil {
		return false, err
	}
	return set.Has(resource, action), nil
}

// HasAllPermissions reports whether the role holds every listed permission.
// A single flattened-set lookup, never per-permission resolution.
func (r *Resolver) HasAllPermissions(ctx context.Context, roleID uuid.UUID, perms ...Permission) (bool, error) {
	set, err := r.Resolve(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if !set.HasKey(p.Key()) {
			return false, nil
		}
	}
	return true, nil
}

// HasAnyPermission reports whether the role holds at least one of the
// listed permissions. Returns false for an empty list.
func (r *Resolver) HasAnyPermission(ctx context.Context, roleID uuid.UUID, perms ...Permission) (bool, error) {
	set, err := r.Resolve(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if set.HasKey(p.Key()) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops a single role's cached set.
func (r *Resolver) Invalidate(ctx context.Context, roleID uuid.UUID) {
	r.cache.Delete(ctx, roleID)
}

// InvalidateAll drops the whole cache. Role mutations use this because a
// change to one role also affects every role inheriting from it; serving a
// stale, already-revoked permission is a security defect, a redundant
// recompute is not.
func (r *Resolver) InvalidateAll(ctx context.Context) {
	r.cache.Flush(ctx)
}

// Close releases the underlying cache.
func (r *Resolver) Close() error {
	return r.cache.Close()
}
