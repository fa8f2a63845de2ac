// Package rbac resolves a role's effective permissions through parent-role
// inheritance and guards the administrative operations that mutate roles.
//
// Resolution walks the single-parent chain of a role, accumulating direct
// permissions from the role and every reachable ancestor. Two defensive
// guards run alongside the walk: a visited set stops inheritance cycles and
// a maximum depth (10 by default) stops runaway chains. Both log a
// configuration warning and return the permissions accumulated so far;
// malformed role data degrades, it never takes resolution down.
//
// Flattened permission sets are cached per role with a TTL (5 minutes by
// default). Every role mutation invalidates the cache before returning, so
// a permission revoked through the admin API is never served stale.
//
//	resolver := rbac.NewResolver(store)
//	ok, err := resolver.HasPermission(ctx, roleID, "issues", "create")
//
// Role administration goes through Admin, which enforces role integrity
// (unique names per organization, immutable system roles, no deletion of
// roles still assigned to members) and emits an audit record for every
// mutation.
//
// Seeder idempotently ensures the standard role catalog exists at startup,
// matching records by their stable legacy alias and never overwriting
// existing rows.
package rbac
