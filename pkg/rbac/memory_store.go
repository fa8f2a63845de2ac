package rbac

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory RoleStore and PermissionStore. Thread-safe
// and intended for tests and single-process embedding; returned roles are
// defensive copies.
type MemoryStore struct {
	mu      sync.RWMutex
	roles   map[uuid.UUID]Role
	perms   map[string]Permission
	members map[uuid.UUID]map[uuid.UUID]struct{} // roleID -> member ids
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:   make(map[uuid.UUID]Role),
		perms:   make(map[string]Permission),
		members: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// GetRole fetches a role with its direct permissions.
func (s *MemoryStore) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return cloneRole(role), nil
}

// GetRoleByName fetches a role by name within an organization.
func (s *MemoryStore) GetRoleByName(ctx context.Context, orgID *uuid.UUID, name string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, role := range s.roles {
		if role.Name == name && sameOrg(role.OrgID, orgID) {
			return cloneRole(role), nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// GetRoleByLegacyAlias fetches a role by its stable legacy alias.
func (s *MemoryStore) GetRoleByLegacyAlias(ctx context.Context, alias string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if alias == "" {
		return Role{}, ErrRoleNotFound
	}
	for _, role := range s.roles {
		if role.LegacyAlias == alias {
			return cloneRole(role), nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// ListRoles returns the organization's roles plus system-wide roles.
func (s *MemoryStore) ListRoles(ctx context.Context, orgID *uuid.UUID) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var roles []Role
	for _, role := range s.roles {
		if role.OrgID == nil || sameOrg(role.OrgID, orgID) {
			roles = append(roles, cloneRole(role))
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].SortOrder != roles[j].SortOrder {
			return roles[i].SortOrder < roles[j].SortOrder
		}
		return roles[i].Name < roles[j].Name
	})
	return roles, nil
}

// CreateRole inserts a role, assigning an id when none is set.
func (s *MemoryStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.roles {
		if existing.Name == role.Name && sameOrg(existing.OrgID, role.OrgID) {
			return Role{}, ErrDuplicateRole
		}
	}

	if role.ID == (uuid.UUID{}) {
		role.ID = uuid.New()
	}
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	for _, perm := range role.Permissions {
		s.perms[perm.Key()] = perm
	}

	s.roles[role.ID] = cloneRole(role)
	return cloneRole(role), nil
}

// UpdateRolePermissions replaces a role's direct permission set.
func (s *MemoryStore) UpdateRolePermissions(ctx context.Context, id uuid.UUID, perms []Permission) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}

	role.Permissions = make([]Permission, len(perms))
	copy(role.Permissions, perms)
	role.UpdatedAt = time.Now().UTC()

	for _, perm := range perms {
		s.perms[perm.Key()] = perm
	}

	s.roles[id] = role
	return cloneRole(role), nil
}

// DeleteRole removes a role.
func (s *MemoryStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(s.roles, id)
	delete(s.members, id)
	return nil
}

// CountRoleMembers returns how many members currently hold the role.
func (s *MemoryStore) CountRoleMembers(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[id]), nil
}

// AssignMember grants the role to a member.
func (s *MemoryStore) AssignMember(memberID, roleID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members[roleID] == nil {
		s.members[roleID] = make(map[uuid.UUID]struct{})
	}
	s.members[roleID][memberID] = struct{}{}
}

// RemoveMember revokes the role from a member.
func (s *MemoryStore) RemoveMember(memberID, roleID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[roleID], memberID)
}

// ListPermissions returns all known permissions ordered by resource, action.
func (s *MemoryStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perms := make([]Permission, 0, len(s.perms))
	for _, p := range s.perms {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Resource != perms[j].Resource {
			return perms[i].Resource < perms[j].Resource
		}
		return perms[i].Action < perms[j].Action
	})
	return perms, nil
}

// EnsurePermission inserts the permission if it does not exist yet.
func (s *MemoryStore) EnsurePermission(ctx context.Context, perm Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[perm.Key()]; !ok {
		s.perms[perm.Key()] = perm
	}
	return nil
}

func sameOrg(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
