package principal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/authzkit/pkg/audit"
)

const (
	// ActionBypassEnabled is the audit action recorded when tenant
	// filtering is suspended.
	ActionBypassEnabled = "principal.bypass.enabled"

	// ActionBypassDisabled is the audit action recorded when tenant
	// filtering is restored.
	ActionBypassDisabled = "principal.bypass.disabled"
)

// BypassRecorder performs audited bypass transitions. The state change is
// applied synchronously; the matching audit event is handed to a background
// dispatcher so the protected operation never waits on, and never fails
// because of, audit I/O.
type BypassRecorder struct {
	sink *audit.AsyncSink
	log  *slog.Logger
}

// RecorderOption configures a BypassRecorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	bufferSize int
	logger     *slog.Logger
}

// WithRecorderLogger sets the logger used for swallowed audit failures.
func WithRecorderLogger(log *slog.Logger) RecorderOption {
	return func(c *recorderConfig) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithRecorderBuffer sets the dispatch buffer size.
func WithRecorderBuffer(size int) RecorderOption {
	return func(c *recorderConfig) {
		c.bufferSize = size
	}
}

// NewBypassRecorder wraps the sink with the background dispatcher. The
// returned close function drains pending events; call it during shutdown.
func NewBypassRecorder(sink audit.Sink, opts ...RecorderOption) (*BypassRecorder, func(context.Context) error) {
	cfg := &recorderConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	async, closeFn := audit.NewAsyncSink(sink, audit.AsyncOptions{
		BufferSize: cfg.bufferSize,
		Logger:     cfg.logger,
	})

	return &BypassRecorder{sink: async, log: cfg.logger}, closeFn
}

// Enable suspends tenant filtering for the principal. Requires a non-empty
// actor id and reason; public-endpoint callers pass SystemActorID. The flag
// is set before the audit event is dispatched, and an audit failure never
// reverts it.
func (r *BypassRecorder) Enable(ctx context.Context, p *Principal, actorID, reason string) error {
	if p == nil {
		return ErrNoPrincipal
	}
	if actorID == "" || reason == "" {
		return fmt.Errorf("%w: actor id and reason are required", ErrBypassContract)
	}
	if p.bypassEnabled {
		return fmt.Errorf("%w: bypass already enabled", ErrBypassContract)
	}

	p.bypassEnabled = true
	p.bypassReason = reason

	r.dispatch(ctx, p, audit.ActionEnabled, ActionBypassEnabled, actorID, reason)
	return nil
}

// Disable restores tenant filtering. Same contract as Enable.
func (r *BypassRecorder) Disable(ctx context.Context, p *Principal, actorID, reason string) error {
	if p == nil {
		return ErrNoPrincipal
	}
	if actorID == "" || reason == "" {
		return fmt.Errorf("%w: actor id and reason are required", ErrBypassContract)
	}
	if !p.bypassEnabled {
		return fmt.Errorf("%w: bypass not enabled", ErrBypassContract)
	}

	p.bypassEnabled = false
	p.bypassReason = ""

	r.dispatch(ctx, p, audit.ActionDisabled, ActionBypassDisabled, actorID, reason)
	return nil
}

// WithBypass runs fn with bypass enabled and guarantees the DISABLED event
// is recorded afterwards even when fn fails.
func (r *BypassRecorder) WithBypass(ctx context.Context, p *Principal, actorID, reason string, fn func(ctx context.Context) error) error {
	if err := r.Enable(ctx, p, actorID, reason); err != nil {
		return err
	}
	defer func() {
		if err := r.Disable(ctx, p, actorID, reason); err != nil {
			r.log.ErrorContext(ctx, "failed to restore tenant filtering",
				slog.String("actor_id", actorID),
				slog.Any("error", err),
			)
		}
	}()

	return fn(ctx)
}

func (r *BypassRecorder) dispatch(ctx context.Context, p *Principal, actionType audit.ActionType, action, actorID, reason string) {
	err := r.sink.Record(ctx, audit.Event{
		TenantID:     p.TenantString(),
		ActorID:      actorID,
		ResourceType: "principal",
		ActionType:   actionType,
		Action:       action,
		Reason:       reason,
	})
	if err != nil {
		// Observability failure only. The bypass state change stands.
		r.log.ErrorContext(ctx, "failed to record bypass transition",
			slog.String("action", action),
			slog.String("actor_id", actorID),
			slog.Any("error", err),
		)
	}
}
