package tenantfilter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/principal"
)

// DefaultTenantField is the field path used when no override is configured.
const DefaultTenantField = "tenant_id"

// RecordLoader fetches the current owning tenant of a record from storage.
// Returns nil, nil when the record carries no tenant field.
type RecordLoader func(ctx context.Context) (*uuid.UUID, error)

// Engine produces tenant-scoped read filters and validates tenant ownership
// on writes and deletes. One engine is configured per entity family, since
// the tenant field path and soft-delete behavior differ between entities.
type Engine struct {
	tenantField     string
	softDeleteField string
	log             *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTenantField overrides the field path holding the owning tenant.
// Use a dotted path for entities owned through one relation hop.
func WithTenantField(path string) EngineOption {
	return func(e *Engine) {
		if path != "" {
			e.tenantField = path
		}
	}
}

// WithSoftDeleteField marks the entity family as soft-deletable; read
// filters exclude records where the field is set unless asked otherwise.
func WithSoftDeleteField(path string) EngineOption {
	return func(e *Engine) {
		e.softDeleteField = path
	}
}

// WithEngineLogger sets the logger for guard denials.
func WithEngineLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an engine for one entity family.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		tenantField: DefaultTenantField,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveTenantID returns the tenant every operation must be scoped to.
// Returns ok=false when bypass is active or the principal carries no
// tenant: in both cases no tenant predicate applies.
func (e *Engine) ResolveTenantID(p *principal.Principal) (uuid.UUID, bool) {
	if p == nil || p.BypassActive() || p.TenantID == nil {
		return uuid.UUID{}, false
	}
	return *p.TenantID, true
}

// ReadOption adjusts read-filter construction.
type ReadOption func(*readConfig)

type readConfig struct {
	includeSoftDeleted bool
}

// IncludeSoftDeleted keeps soft-deleted records in the result set.
func IncludeSoftDeleted() ReadOption {
	return func(c *readConfig) {
		c.includeSoftDeleted = true
	}
}

// ApplyReadFilter merges the tenant predicate, and for soft-deletable
// entities the not-deleted predicate, into the filter. When the filter is
// an OR-list, every clause is scoped independently so tenant isolation
// dominates each branch. The input filter is never mutated.
func (e *Engine) ApplyReadFilter(filter Filter, p *principal.Principal, opts ...ReadOption) Filter {
	cfg := &readConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	preds := make(Criteria, 2)
	if tid, ok := e.ResolveTenantID(p); ok {
		preds[e.tenantField] = tid
	}
	if e.softDeleteField != "" && !cfg.includeSoftDeleted {
		preds[e.softDeleteField] = nil
	}

	return filter.merge(preds)
}

// GuardWrite fails with ErrTenantMismatch when the record's tenant is set
// and differs from the resolved tenant. A no-op when tenant resolution
// yields none (bypass or tenant-less principal) or the record carries no
// tenant value.
func (e *Engine) GuardWrite(ctx context.Context, p *principal.Principal, recordTenant *uuid.UUID) error {
	tid, ok := e.ResolveTenantID(p)
	if !ok || recordTenant == nil {
		return nil
	}

	if *recordTenant != tid {
		e.log.WarnContext(ctx, "cross-tenant write denied",
			slog.String("tenant_field", e.tenantField),
			slog.String("principal_tenant", tid.String()),
		)
		return fmt.Errorf("%w: tenant scope violation on %s", ErrTenantMismatch, e.tenantField)
	}
	return nil
}

// GuardDelete re-validates ownership immediately before a delete executes.
// The loader fetches the record's current owning tenant from storage, so a
// record loaded earlier under a different context is never trusted: every
// delete is a fresh trust boundary.
func (e *Engine) GuardDelete(ctx context.Context, p *principal.Principal, load RecordLoader) error {
	tid, ok := e.ResolveTenantID(p)
	if !ok {
		return nil
	}

	recordTenant, err := load(ctx)
	if err != nil {
		return err
	}
	if recordTenant == nil {
		return nil
	}

	if *recordTenant != tid {
		e.log.WarnContext(ctx, "cross-tenant delete denied",
			slog.String("tenant_field", e.tenantField),
			slog.String("principal_tenant", tid.String()),
		)
		return fmt.Errorf("%w: tenant scope violation on %s", ErrTenantMismatch, e.tenantField)
	}
	return nil
}
