// Package tenantfilter is the single enforcement point between business
// operations and shared storage in a multi-tenant system. It scopes every
// read to the caller's tenant and validates tenant ownership on every write
// and delete.
//
// The package is storage-agnostic: filters are expressed as a minimal
// composition of field-path predicates (Criteria joined into an OR-list
// Filter) that a storage adapter translates into its native query form.
// See the mongofilter package for a MongoDB translation and the pg package
// for storage-native row-level security.
//
// The central invariant: tenant scoping dominates every branch of a query.
// When a filter is an OR-list, the tenant predicate is merged into each
// clause independently, never appended once globally.
//
//	engine := tenantfilter.New(tenantfilter.WithSoftDeleteField("deleted_at"))
//	filter := engine.ApplyReadFilter(tenantfilter.Filter{
//	    {"status": "open"},
//	    {"status": "closed"},
//	}, p)
//	// → [{status: open, tenant_id: T}, {status: closed, tenant_id: T}]
package tenantfilter
