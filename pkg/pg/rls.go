package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/authzkit/pkg/principal"
)

const (
	// SessionTenantVar is the transaction-scoped variable row-level
	// security policies compare tenant_id against.
	SessionTenantVar = "app.current_tenant"

	// SessionBypassVar marks a transaction as running under the audited
	// bypass. Policies must widen to all rows only when this is "on",
	// never when SessionTenantVar merely happens to be unset.
	SessionBypassVar = "app.tenant_isolation_bypass"
)

// ErrNoSessionTenant is returned when a non-bypass principal without a
// tenant asks for a tenant-scoped session. RLS fails closed in that case.
var ErrNoSessionTenant = errors.New("pg: principal has no tenant for rls session")

// Execer is the minimal transaction capability needed to set session
// variables. Satisfied by pgx.Tx and *pgxpool.Conn.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SetTenantSession sets the transaction-scoped variables that drive
// storage-native row filtering. set_config with is_local=true clears the
// variable when the transaction ends, so nothing leaks back into the
// connection pool even if no explicit reset runs.
//
// Must be called inside an active transaction. With an unset variable the
// example policy in the bundled migrations matches no rows, so a forgotten
// call denies rather than exposes.
func SetTenantSession(ctx context.Context, tx Execer, p *principal.Principal) error {
	if p.BypassActive() {
		// The tenant variable stays unset under bypass. All-rows
		// visibility flows only through the bypass marker, which is
		// reachable only via the audited transition.
		_, err := tx.Exec(ctx, `SELECT set_config($1, 'on', true)`, SessionBypassVar)
		return err
	}

	if p == nil || p.TenantID == nil {
		return ErrNoSessionTenant
	}

	_, err := tx.Exec(ctx, `SELECT set_config($1, $2, true)`, SessionTenantVar, p.TenantID.String())
	return err
}
