package rbac

import (
	"context"

	"github.com/google/uuid"
)

// RoleStore persists roles. Implementations return ErrRoleNotFound for
// missing roles and ErrDuplicateRole for name collisions within an
// organization.
type RoleStore interface {
	// GetRole fetches a role with its direct permissions.
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)

	// GetRoleByName fetches a role by name within an organization.
	// A nil orgID addresses system-wide roles.
	GetRoleByName(ctx context.Context, orgID *uuid.UUID, name string) (Role, error)

	// GetRoleByLegacyAlias fetches a role by its stable legacy alias.
	GetRoleByLegacyAlias(ctx context.Context, alias string) (Role, error)

	// ListRoles returns the organization's roles plus system-wide roles,
	// ordered by sort order then name.
	ListRoles(ctx context.Context, orgID *uuid.UUID) ([]Role, error)

	// CreateRole inserts a role with its direct permissions.
	CreateRole(ctx context.Context, role Role) (Role, error)

	// UpdateRolePermissions replaces a role's direct permission set.
	UpdateRolePermissions(ctx context.Context, id uuid.UUID, perms []Permission) (Role, error)

	// DeleteRole removes a role.
	DeleteRole(ctx context.Context, id uuid.UUID) error

	// CountRoleMembers returns how many members currently hold the role.
	CountRoleMembers(ctx context.Context, id uuid.UUID) (int, error)
}

// PermissionStore persists the catalog of known permissions.
type PermissionStore interface {
	// ListPermissions returns all permissions ordered by resource, action.
	ListPermissions(ctx context.Context) ([]Permission, error)

	// EnsurePermission inserts the permission if it does not exist yet.
	EnsurePermission(ctx context.Context, perm Permission) error
}
