package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authzkit/pkg/pg"
)

const selectRoleSQL = `
SELECT id, organization_id, name, system_role, COALESCE(legacy_alias, ''),
       parent_role_id, sort_order, created_at, updated_at
FROM roles`

const selectRolePermissionsSQL = `
SELECT p.resource, p.action
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1
ORDER BY p.resource, p.action`

const upsertPermissionSQL = `
INSERT INTO permissions (resource, action)
VALUES ($1, $2)
ON CONFLICT (resource, action) DO UPDATE SET resource = EXCLUDED.resource
RETURNING id`

// PostgresStore is a RoleStore and PermissionStore over the tables created
// by the bundled migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the provided pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("rbac: pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) scanRole(row pgx.Row) (Role, error) {
	var role Role
	var alias string
	err := row.Scan(&role.ID, &role.OrgID, &role.Name, &role.SystemRole, &alias,
		&role.ParentID, &role.SortOrder, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	role.LegacyAlias = alias
	return role, nil
}

func (s *PostgresStore) loadPermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, selectRolePermissionsSQL, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetRole fetches a role with its direct permissions.
func (s *PostgresStore) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	role, err := s.scanRole(s.pool.QueryRow(ctx, selectRoleSQL+" WHERE id = $1", id))
	if err != nil {
		return Role{}, err
	}
	role.Permissions, err = s.loadPermissions(ctx, role.ID)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// GetRoleByName fetches a role by name within an organization. A nil orgID
// addresses system-wide roles.
func (s *PostgresStore) GetRoleByName(ctx context.Context, orgID *uuid.UUID, name string) (Role, error) {
	row := s.pool.QueryRow(ctx,
		selectRoleSQL+" WHERE organization_id IS NOT DISTINCT FROM $1 AND name = $2", orgID, name)
	role, err := s.scanRole(row)
	if err != nil {
		return Role{}, err
	}
	role.Permissions, err = s.loadPermissions(ctx, role.ID)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// GetRoleByLegacyAlias fetches a role by its stable legacy alias.
func (s *PostgresStore) GetRoleByLegacyAlias(ctx context.Context, alias string) (Role, error) {
	if alias == "" {
		return Role{}, ErrRoleNotFound
	}
	role, err := s.scanRole(s.pool.QueryRow(ctx, selectRoleSQL+" WHERE legacy_alias = $1", alias))
	if err != nil {
		return Role{}, err
	}
	role.Permissions, err = s.loadPermissions(ctx, role.ID)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns the organization's roles plus system-wide roles.
func (s *PostgresStore) ListRoles(ctx context.Context, orgID *uuid.UUID) ([]Role, error) {
	rows, err := s.pool.Query(ctx,
		selectRoleSQL+` WHERE organization_id IS NULL OR organization_id IS NOT DISTINCT FROM $1
		ORDER BY sort_order, name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := s.scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		roles[i].Permissions, err = s.loadPermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// CreateRole inserts a role with its direct permissions in one transaction.
func (s *PostgresStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	if role.ID == (uuid.UUID{}) {
		role.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Role{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, `
		INSERT INTO roles (id, organization_id, name, system_role, legacy_alias, parent_role_id, sort_order)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		RETURNING created_at, updated_at`,
		role.ID, role.OrgID, role.Name, role.SystemRole, role.LegacyAlias, role.ParentID, role.SortOrder,
	).Scan(&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return Role{}, ErrDuplicateRole
		}
		return Role{}, err
	}

	if err := attachPermissions(ctx, tx, role.ID, role.Permissions); err != nil {
		return Role{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRolePermissions replaces a role's direct permission set.
func (s *PostgresStore) UpdateRolePermissions(ctx context.Context, id uuid.UUID, perms []Permission) (Role, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Role{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, `UPDATE roles SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return Role{}, err
	}
	if tag.RowsAffected() == 0 {
		return Role{}, ErrRoleNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return Role{}, err
	}
	if err := attachPermissions(ctx, tx, id, perms); err != nil {
		return Role{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Role{}, err
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role. The admin layer checks member assignments
// first; the foreign-key mapping here is defense in depth.
func (s *PostgresStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrRoleInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// CountRoleMembers returns how many members currently hold the role.
func (s *PostgresStore) CountRoleMembers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM member_roles WHERE role_id = $1`, id).Scan(&count)
	return count, err
}

// ListPermissions returns all permissions ordered by resource, action.
func (s *PostgresStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT resource, action FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsurePermission inserts the permission if it does not exist yet.
func (s *PostgresStore) EnsurePermission(ctx context.Context, perm Permission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO permissions (resource, action) VALUES ($1, $2) ON CONFLICT (resource, action) DO NOTHING`,
		perm.Resource, perm.Action)
	if err != nil {
		return fmt.Errorf("ensure permission %s: %w", perm.Key(), err)
	}
	return nil
}

func attachPermissions(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, perms []Permission) error {
	for _, perm := range perms {
		var permID uuid.UUID
		if err := tx.QueryRow(ctx, upsertPermissionSQL, perm.Resource, perm.Action).Scan(&permID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, permID); err != nil {
			return err
		}
	}
	return nil
}
