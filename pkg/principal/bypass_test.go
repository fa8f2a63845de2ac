package principal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/audit"
	"github.com/dmitrymomot/authzkit/pkg/principal"
)

// failingSink always rejects writes so tests can verify the failure is
// swallowed.
type failingSink struct{}

func (failingSink) Record(ctx context.Context, event audit.Event) error {
	return errors.New("storage down")
}

// panickingSink verifies the dispatch error boundary contains panics.
type panickingSink struct{}

func (panickingSink) Record(ctx context.Context, event audit.Event) error {
	panic("sink exploded")
}

func TestBypassRecorder_Enable(t *testing.T) {
	t.Parallel()

	t.Run("mutates state and records one event", func(t *testing.T) {
		t.Parallel()

		sink := audit.NewMemorySink()
		rec, closeFn := principal.NewBypassRecorder(sink)

		p := newTestPrincipal(t)
		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "support escalation"))
		assert.True(t, p.BypassActive())
		assert.Equal(t, "support escalation", p.BypassReason())

		require.NoError(t, closeFn(context.Background()))
		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, principal.ActionBypassEnabled, events[0].Action)
		assert.Equal(t, audit.ActionEnabled, events[0].ActionType)
		assert.Equal(t, "user-1", events[0].ActorID)
		assert.Equal(t, "support escalation", events[0].Reason)
		assert.Equal(t, p.TenantString(), events[0].TenantID)
	})

	t.Run("requires actor id and reason", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(audit.NewMemorySink())
		defer closeFn(context.Background()) //nolint:errcheck

		p := newTestPrincipal(t)
		assert.ErrorIs(t, rec.Enable(context.Background(), p, "", "reason"), principal.ErrBypassContract)
		assert.ErrorIs(t, rec.Enable(context.Background(), p, "user-1", ""), principal.ErrBypassContract)
		assert.False(t, p.BypassActive())
	})

	t.Run("rejects double enable", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(audit.NewMemorySink())
		defer closeFn(context.Background()) //nolint:errcheck

		p := newTestPrincipal(t)
		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "first"))
		assert.ErrorIs(t, rec.Enable(context.Background(), p, "user-1", "second"), principal.ErrBypassContract)
	})

	t.Run("rejects nil principal", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(audit.NewMemorySink())
		defer closeFn(context.Background()) //nolint:errcheck

		assert.ErrorIs(t, rec.Enable(context.Background(), nil, "user-1", "reason"), principal.ErrNoPrincipal)
	})

	t.Run("audit failure never propagates or reverts state", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(failingSink{})
		p := newTestPrincipal(t)

		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "reason"))
		assert.True(t, p.BypassActive())
		require.NoError(t, closeFn(context.Background()))
	})

	t.Run("panicking sink is contained", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(panickingSink{})
		p := newTestPrincipal(t)

		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "reason"))
		assert.True(t, p.BypassActive())
		require.NoError(t, closeFn(context.Background()))
	})
}

func TestBypassRecorder_Disable(t *testing.T) {
	t.Parallel()

	t.Run("restores state and records one event", func(t *testing.T) {
		t.Parallel()

		sink := audit.NewMemorySink()
		rec, closeFn := principal.NewBypassRecorder(sink)

		p := newTestPrincipal(t)
		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "reason"))
		require.NoError(t, rec.Disable(context.Background(), p, "user-1", "reason"))
		assert.False(t, p.BypassActive())
		assert.Empty(t, p.BypassReason())

		require.NoError(t, closeFn(context.Background()))
		events := sink.Events()
		require.Len(t, events, 2)
		assert.Equal(t, principal.ActionBypassEnabled, events[0].Action)
		assert.Equal(t, principal.ActionBypassDisabled, events[1].Action)
	})

	t.Run("rejects disable when not enabled", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := principal.NewBypassRecorder(audit.NewMemorySink())
		defer closeFn(context.Background()) //nolint:errcheck

		p := newTestPrincipal(t)
		assert.ErrorIs(t, rec.Disable(context.Background(), p, "user-1", "reason"), principal.ErrBypassContract)
	})
}

func TestBypassRecorder_WithBypass(t *testing.T) {
	t.Parallel()

	t.Run("bypass active only inside the callback", func(t *testing.T) {
		t.Parallel()

		sink := audit.NewMemorySink()
		rec, closeFn := principal.NewBypassRecorder(sink)

		p := newTestPrincipal(t)
		err := rec.WithBypass(context.Background(), p, "user-1", "backfill", func(ctx context.Context) error {
			assert.True(t, p.BypassActive())
			return nil
		})
		require.NoError(t, err)
		assert.False(t, p.BypassActive())

		require.NoError(t, closeFn(context.Background()))
		events := sink.Events()
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionEnabled, events[0].ActionType)
		assert.Equal(t, audit.ActionDisabled, events[1].ActionType)
	})

	t.Run("disabled event recorded even when the operation fails", func(t *testing.T) {
		t.Parallel()

		sink := audit.NewMemorySink()
		rec, closeFn := principal.NewBypassRecorder(sink)

		p := newTestPrincipal(t)
		opErr := errors.New("boom")
		err := rec.WithBypass(context.Background(), p, "user-1", "backfill", func(ctx context.Context) error {
			return opErr
		})
		assert.ErrorIs(t, err, opErr)
		assert.False(t, p.BypassActive())

		require.NoError(t, closeFn(context.Background()))
		require.Equal(t, 2, sink.Len())
	})

	t.Run("system actor placeholder keeps audit trail populated", func(t *testing.T) {
		t.Parallel()

		sink := audit.NewMemorySink()
		rec, closeFn := principal.NewBypassRecorder(sink)

		p := principal.FromIdentity(principal.Identity{PrincipalID: ""})
		err := rec.WithBypass(context.Background(), p, principal.SystemActorID, "public signup lookup", func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, closeFn(context.Background()))
		for _, event := range sink.Events() {
			assert.Equal(t, principal.SystemActorID, event.ActorID)
		}
	})
}

func TestBypassRecorder_EventOrdering(t *testing.T) {
	t.Parallel()

	sink := audit.NewMemorySink()
	rec, closeFn := principal.NewBypassRecorder(sink)

	p := newTestPrincipal(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, rec.Enable(context.Background(), p, "user-1", "cycle"))
		require.NoError(t, rec.Disable(context.Background(), p, "user-1", "cycle"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, closeFn(ctx))

	events := sink.Events()
	require.Len(t, events, 20)
	for i, event := range events {
		if i%2 == 0 {
			assert.Equal(t, audit.ActionEnabled, event.ActionType)
		} else {
			assert.Equal(t, audit.ActionDisabled, event.ActionType)
		}
	}
}
