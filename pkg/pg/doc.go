// Package pg provides the PostgreSQL plumbing for the authorization layer:
// pooled connectivity via pgx/v5, goose schema migrations for the role,
// permission and audit tables, health checks, common error classification
// helpers, and the transaction-scoped session variables that drive
// storage-native row-level security.
//
// Connectivity follows the usual shape: Config is populated from
// environment variables (github.com/caarlos0/env), Connect opens a
// *pgxpool.Pool with retry and back-off, Migrate brings the schema up to
// date before the service starts serving traffic.
//
// The row-level-security half is specific to tenant isolation.
// SetTenantSession must run inside an active transaction and sets
// app.current_tenant with is_local=true, so the variable disappears with
// the transaction and can never leak through the connection pool. Policies
// written against these variables fail closed: an unset variable matches no
// rows, and all-rows visibility requires the explicit bypass marker set
// only through the audited bypass path.
//
//	tx, _ := pool.Begin(ctx)
//	defer tx.Rollback(ctx)
//	if err := pg.SetTenantSession(ctx, tx, p); err != nil {
//	    return err
//	}
//	// queries in this transaction now see only p's tenant rows
//
// Error helpers such as [pg.IsDuplicateKeyError] and
// [pg.IsForeignKeyViolationError] unwrap *pgconn.PgError so business logic
// can classify constraint violations without string matching.
package pg
