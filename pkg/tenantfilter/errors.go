package tenantfilter

import "errors"

var (
	// ErrTenantMismatch is returned when a write or delete targets a record
	// owned by another tenant. Always fatal to the triggering operation.
	// The message is deliberately generic: it must not reveal whether the
	// record exists under a different tenant.
	ErrTenantMismatch = errors.New("tenantfilter: forbidden")

	// ErrNoTenant is returned when an operation requires a tenant-bound
	// principal and the principal carries none.
	ErrNoTenant = errors.New("tenantfilter: principal has no tenant")
)
