// Package principal carries the request-scoped identity and tenant context
// under which every authorized operation executes.
//
// A Principal is created once a credential has been verified and travels
// through the request via context.Context. It is never stored in a shared
// global, so concurrent requests cannot observe each other's tenant or
// bypass state.
//
// The package also implements the audited bypass escape hatch: an explicit,
// reversible suspension of tenant filtering for administrative operations.
// Every transition is recorded through an audit sink on a background
// dispatcher, so bypass usage leaves a trail without ever blocking or
// failing the protected operation.
//
// Basic usage:
//
//	p := principal.FromIdentity(identity)
//	ctx = principal.WithPrincipal(ctx, p)
//
//	rec, closeFn := principal.NewBypassRecorder(sink)
//	defer closeFn(context.Background())
//
//	err := rec.WithBypass(ctx, p, actorID, "backfill tenant invoices", func(ctx context.Context) error {
//	    return migrateAllTenants(ctx)
//	})
package principal
