package rbac

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxInheritanceDepth bounds the parent-chain walk.
	DefaultMaxInheritanceDepth = 10

	// DefaultCacheTTL is how long a flattened permission set stays cached.
	DefaultCacheTTL = 5 * time.Minute
)

// Config carries the tunable resolver settings, populated from environment
// variables via the config package:
//
//	var cfg rbac.Config
//	config.MustLoad(&cfg)
//	resolver := rbac.NewResolver(store, rbac.WithConfig(cfg))
type Config struct {
	CacheTTL            time.Duration `env:"RBAC_CACHE_TTL" envDefault:"5m"`              // CacheTTL is the lifetime of a cached permission set.
	MaxInheritanceDepth int           `env:"RBAC_MAX_INHERITANCE_DEPTH" envDefault:"10"`  // MaxInheritanceDepth bounds the parent-chain walk.
}

// Permission is an atomic capability, unique per resource/action pair.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Key returns the canonical "resource:action" form used for deduplication
// and cache storage.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// Role groups permissions and optionally inherits from a single parent.
// A nil OrgID marks a system-wide role. System roles cannot be modified or
// deleted through the admin API.
type Role struct {
	ID          uuid.UUID
	OrgID       *uuid.UUID
	Name        string
	SystemRole  bool
	LegacyAlias string
	ParentID    *uuid.UUID
	Permissions []Permission
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionSet is a flattened, deduplicated set of permission keys.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p.Key()] = struct{}{}
	}
	return set
}

func setFromKeys(keys []string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether the set grants the resource/action pair.
func (s PermissionSet) Has(resource, action string) bool {
	_, ok := s[Permission{Resource: resource, Action: action}.Key()]
	return ok
}

// HasKey reports whether the set contains the canonical key.
func (s PermissionSet) HasKey(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the sorted canonical keys.
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Permissions converts the set back into permission values, sorted by key.
func (s PermissionSet) Permissions() []Permission {
	perms := make([]Permission, 0, len(s))
	for _, k := range s.Keys() {
		resource, action, _ := strings.Cut(k, ":")
		perms = append(perms, Permission{Resource: resource, Action: action})
	}
	return perms
}

func permissionKeys(perms []Permission) []string {
	return NewPermissionSet(perms...).Keys()
}

func cloneRole(r Role) Role {
	out := r
	if r.OrgID != nil {
		id := *r.OrgID
		out.OrgID = &id
	}
	if r.ParentID != nil {
		id := *r.ParentID
		out.ParentID = &id
	}
	out.Permissions = make([]Permission, len(r.Permissions))
	copy(out.Permissions, r.Permissions)
	return out
}
