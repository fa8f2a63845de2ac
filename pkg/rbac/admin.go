package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/audit"
	"github.com/dmitrymomot/authzkit/pkg/principal"
)

const (
	// ActionRoleCreated is the audit action for role creation.
	ActionRoleCreated = "rbac.role.created"

	// ActionRoleUpdated is the audit action for permission updates.
	ActionRoleUpdated = "rbac.role.updated"

	// ActionRoleDeleted is the audit action for role deletion.
	ActionRoleDeleted = "rbac.role.deleted"
)

// Admin performs role administration: creation, permission updates and
// deletion, with integrity checks, audit records and cache invalidation.
type Admin struct {
	roles    RoleStore
	perms    PermissionStore
	resolver *Resolver
	sink     audit.Sink
	log      *slog.Logger
}

// AdminOption configures an Admin.
type AdminOption func(*Admin)

// WithAdminLogger sets the logger for swallowed audit failures.
func WithAdminLogger(log *slog.Logger) AdminOption {
	return func(a *Admin) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAdmin creates the role administration service.
func NewAdmin(roles RoleStore, perms PermissionStore, resolver *Resolver, sink audit.Sink, opts ...AdminOption) *Admin {
	if roles == nil || perms == nil || resolver == nil || sink == nil {
		panic("rbac: admin dependencies cannot be nil")
	}

	a := &Admin{
		roles:    roles,
		perms:    perms,
		resolver: resolver,
		sink:     sink,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateRoleInput describes a custom role to create.
type CreateRoleInput struct {
	OrgID       *uuid.UUID
	Name        string
	ParentID    *uuid.UUID
	Permissions []Permission
	SortOrder   int
}

// CreateCustomRole creates an organization-scoped role. The name must be
// unique within the organization.
func (a *Admin) CreateCustomRole(ctx context.Context, p *principal.Principal, in CreateRoleInput) (Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: name is required", ErrInvalidRole)
	}

	if _, err := a.roles.GetRoleByName(ctx, in.OrgID, name); err == nil {
		return Role{}, ErrDuplicateRole
	} else if !errors.Is(err, ErrRoleNotFound) {
		return Role{}, err
	}

	for _, perm := range in.Permissions {
		if err := a.perms.EnsurePermission(ctx, perm); err != nil {
			return Role{}, err
		}
	}

	role, err := a.roles.CreateRole(ctx, Role{
		OrgID:       in.OrgID,
		Name:        name,
		ParentID:    in.ParentID,
		Permissions: in.Permissions,
		SortOrder:   in.SortOrder,
	})
	if err != nil {
		return Role{}, err
	}

	a.recordAudit(ctx, p, audit.ActionCreated, ActionRoleCreated, role.ID, map[string]any{
		"name":        role.Name,
		"permissions": permissionKeys(role.Permissions),
	})
	return role, nil
}

// UpdateRolePermissions replaces a role's direct permission set. System
// roles are immutable through this API. The permission cache is flushed
// before returning, so a follow-up check never sees the old set.
func (a *Admin) UpdateRolePermissions(ctx context.Context, p *principal.Principal, roleID uuid.UUID, perms []Permission) (Role, error) {
	role, err := a.roles.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if role.SystemRole {
		return Role{}, ErrSystemRoleImmutable
	}

	before := permissionKeys(role.Permissions)

	for _, perm := range perms {
		if err := a.perms.EnsurePermission(ctx, perm); err != nil {
			return Role{}, err
		}
	}

	updated, err := a.roles.UpdateRolePermissions(ctx, roleID, perms)
	if err != nil {
		return Role{}, err
	}

	// Whole-cache flush: roles inheriting from this one change too.
	a.resolver.InvalidateAll(ctx)

	a.recordAudit(ctx, p, audit.ActionUpdated, ActionRoleUpdated, roleID, map[string]any{
		"name":   updated.Name,
		"before": before,
		"after":  permissionKeys(updated.Permissions),
	})
	return updated, nil
}

// DeleteRole removes a role. System roles cannot be deleted; roles still
// assigned to members are rejected with ErrRoleInUse before the store is
// touched, so the caller never sees a leaked foreign-key error. The audit
// record carries the role's full permission snapshot at deletion time.
func (a *Admin) DeleteRole(ctx context.Context, p *principal.Principal, roleID uuid.UUID) error {
	role, err := a.roles.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.SystemRole {
		return ErrSystemRoleImmutable
	}

	members, err := a.roles.CountRoleMembers(ctx, roleID)
	if err != nil {
		return err
	}
	if members > 0 {
		return fmt.Errorf("%w: %d members still assigned", ErrRoleInUse, members)
	}

	if err := a.roles.DeleteRole(ctx, roleID); err != nil {
		return err
	}

	a.resolver.InvalidateAll(ctx)

	a.recordAudit(ctx, p, audit.ActionDeleted, ActionRoleDeleted, roleID, map[string]any{
		"name":        role.Name,
		"permissions": permissionKeys(role.Permissions),
	})
	return nil
}

// ListRoles returns the organization's roles plus system-wide roles.
func (a *Admin) ListRoles(ctx context.Context, orgID *uuid.UUID) ([]Role, error) {
	return a.roles.ListRoles(ctx, orgID)
}

// ListPermissionsGrouped returns the permission catalog grouped by
// resource, each group sorted by action. Shaped for UI consumption.
func (a *Admin) ListPermissionsGrouped(ctx context.Context) (map[string][]Permission, error) {
	perms, err := a.perms.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]Permission)
	for _, p := range perms {
		grouped[p.Resource] = append(grouped[p.Resource], p)
	}
	for resource := range grouped {
		sort.Slice(grouped[resource], func(i, j int) bool {
			return grouped[resource][i].Action < grouped[resource][j].Action
		})
	}
	return grouped, nil
}

// recordAudit writes the mutation record. Audit is observability here:
// failures are logged and swallowed, never surfaced to the admin call.
func (a *Admin) recordAudit(ctx context.Context, p *principal.Principal, actionType audit.ActionType, action string, roleID uuid.UUID, metadata map[string]any) {
	actorID := principal.SystemActorID
	tenantID := ""
	if p != nil {
		if p.ActorID != "" {
			actorID = p.ActorID
		}
		tenantID = p.TenantString()
	}

	err := a.sink.Record(ctx, audit.Event{
		TenantID:     tenantID,
		ActorID:      actorID,
		ResourceType: "role",
		ResourceID:   roleID.String(),
		ActionType:   actionType,
		Action:       action,
		Metadata:     metadata,
	})
	if err != nil {
		a.log.ErrorContext(ctx, "failed to record role mutation",
			slog.String("action", action),
			slog.String("role_id", roleID.String()),
			slog.Any("error", err),
		)
	}
}
