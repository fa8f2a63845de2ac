package principal

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithPrincipal adds a principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext retrieves the principal from the context.
// Returns nil, false if no principal is found.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok
}

// MustFromContext retrieves the principal from the context.
// Panics if no principal is found. Use this only in handlers that
// absolutely require an authenticated caller to function.
func MustFromContext(ctx context.Context) *Principal {
	p, ok := FromContext(ctx)
	if !ok || p == nil {
		panic("principal: no principal in context")
	}
	return p
}

// LoggerExtractor returns a context extractor for the logger that adds
// actor and tenant attributes when a principal is present.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		p, ok := FromContext(ctx)
		if !ok || p == nil {
			return slog.Attr{}, false
		}
		attrs := []any{slog.String("actor_id", p.ActorID)}
		if p.TenantID != nil {
			attrs = append(attrs, slog.String("tenant_id", p.TenantID.String()))
		}
		return slog.Group("principal", attrs...), true
	}
}
