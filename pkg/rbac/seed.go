package rbac

import (
	"context"
	"errors"
	"log/slog"
)

// SeedRole describes one entry of the standard role catalog. Roles are
// matched by LegacyAlias, the stable key mapping the hardcoded legacy role
// names onto database-backed records.
type SeedRole struct {
	LegacyAlias string
	Name        string
	ParentAlias string
	SortOrder   int
	Permissions []Permission
}

// DefaultCatalog returns the standard system roles. Ordered base-first so
// parent links can be resolved in a single pass.
func DefaultCatalog() []SeedRole {
	return []SeedRole{
		{
			LegacyAlias: "viewer",
			Name:        "Viewer",
			SortOrder:   40,
			Permissions: []Permission{
				{Resource: "projects", Action: "view"},
				{Resource: "boards", Action: "view"},
				{Resource: "issues", Action: "view"},
			},
		},
		{
			LegacyAlias: "member",
			Name:        "Member",
			ParentAlias: "viewer",
			SortOrder:   30,
			Permissions: []Permission{
				{Resource: "issues", Action: "create"},
				{Resource: "issues", Action: "edit"},
				{Resource: "comments", Action: "create"},
			},
		},
		{
			LegacyAlias: "admin",
			Name:        "Admin",
			ParentAlias: "member",
			SortOrder:   20,
			Permissions: []Permission{
				{Resource: "projects", Action: "manage"},
				{Resource: "boards", Action: "manage"},
				{Resource: "members", Action: "invite"},
				{Resource: "roles", Action: "manage"},
			},
		},
		{
			LegacyAlias: "owner",
			Name:        "Owner",
			ParentAlias: "admin",
			SortOrder:   10,
			Permissions: []Permission{
				{Resource: "organization", Action: "manage"},
				{Resource: "billing", Action: "manage"},
			},
		},
	}
}

// Seeder idempotently ensures the standard roles and permissions exist.
type Seeder struct {
	roles RoleStore
	perms PermissionStore
	log   *slog.Logger
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithSeederLogger sets the logger for seeding failures.
func WithSeederLogger(log *slog.Logger) SeederOption {
	return func(s *Seeder) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSeeder creates a seeder over the stores.
func NewSeeder(roles RoleStore, perms PermissionStore, opts ...SeederOption) *Seeder {
	if roles == nil || perms == nil {
		panic("rbac: seeder stores cannot be nil")
	}

	s := &Seeder{
		roles: roles,
		perms: perms,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed ensures every catalog entry exists, matched by legacy alias.
// Existing records are never overwritten. Failures are logged and
// swallowed: incomplete seeding must not prevent the service from starting.
func (s *Seeder) Seed(ctx context.Context, catalog []SeedRole) {
	ids := make(map[string]Role, len(catalog))

	for _, entry := range catalog {
		existing, err := s.roles.GetRoleByLegacyAlias(ctx, entry.LegacyAlias)
		if err == nil {
			ids[entry.LegacyAlias] = existing
			continue
		}
		if !errors.Is(err, ErrRoleNotFound) {
			s.log.ErrorContext(ctx, "role seeding lookup failed",
				slog.String("alias", entry.LegacyAlias),
				slog.Any("error", err),
			)
			continue
		}

		for _, perm := range entry.Permissions {
			if err := s.perms.EnsurePermission(ctx, perm); err != nil {
				s.log.ErrorContext(ctx, "permission seeding failed",
					slog.String("permission", perm.Key()),
					slog.Any("error", err),
				)
			}
		}

		role := Role{
			Name:        entry.Name,
			SystemRole:  true,
			LegacyAlias: entry.LegacyAlias,
			SortOrder:   entry.SortOrder,
			Permissions: entry.Permissions,
		}
		if parent, ok := ids[entry.ParentAlias]; ok && entry.ParentAlias != "" {
			parentID := parent.ID
			role.ParentID = &parentID
		}

		created, err := s.roles.CreateRole(ctx, role)
		if err != nil {
			s.log.ErrorContext(ctx, "role seeding failed",
				slog.String("alias", entry.LegacyAlias),
				slog.Any("error", err),
			)
			continue
		}
		ids[entry.LegacyAlias] = created
	}
}
