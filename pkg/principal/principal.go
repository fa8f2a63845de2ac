package principal

import (
	"github.com/google/uuid"
)

// SystemActorID is the well-known placeholder recorded when no authenticated
// actor exists, e.g. a bypass performed from a public endpoint. The audit
// trail must never carry an empty actor.
const SystemActorID = "system"

// Identity is the verified-credential result handed over by the token
// verification layer. The authorization core trusts the tenant id it is
// given and performs no verification of its own.
type Identity struct {
	PrincipalID string
	TenantID    *uuid.UUID
	SuperAdmin  bool
}

// Principal is the request-scoped execution context: who acts, for which
// tenant, and whether tenant filtering is currently bypassed. One instance
// exists per logical request and must only travel via context or explicit
// parameters.
type Principal struct {
	ActorID    string
	TenantID   *uuid.UUID
	SuperAdmin bool

	bypassEnabled bool
	bypassReason  string
}

// FromIdentity builds a Principal from a verified identity.
func FromIdentity(id Identity) *Principal {
	return &Principal{
		ActorID:    id.PrincipalID,
		TenantID:   id.TenantID,
		SuperAdmin: id.SuperAdmin,
	}
}

// BypassActive reports whether tenant filtering is currently suspended.
func (p *Principal) BypassActive() bool {
	return p != nil && p.bypassEnabled
}

// BypassReason returns the reason given when bypass was enabled, empty when
// bypass is not active.
func (p *Principal) BypassReason() string {
	if p == nil {
		return ""
	}
	return p.bypassReason
}

// HasTenant reports whether the principal is bound to a tenant.
func (p *Principal) HasTenant() bool {
	return p != nil && p.TenantID != nil
}

// TenantString returns the tenant id as a string, empty when unbound.
func (p *Principal) TenantString() string {
	if p == nil || p.TenantID == nil {
		return ""
	}
	return p.TenantID.String()
}
