// Package audit records security-relevant events emitted by the authorization
// layer: tenant-isolation bypass transitions and role/permission mutations.
//
// The package defines the Event shape and the Sink collaborator interface.
// Producers treat sinks as best-effort: a failed write is logged by the caller
// and never fails the operation that triggered it.
//
// Three sink implementations ship with the package:
//
//   - MemorySink: thread-safe in-memory buffer for tests and local development
//   - PostgresSink: pgx-backed sink writing to the audit_events table
//   - AsyncSink: decorator that moves writes onto a background worker so the
//     caller never blocks on audit I/O
//
// Basic usage:
//
//	sink := audit.NewPostgresSink(pool)
//	async, closeFn := audit.NewAsyncSink(sink, audit.AsyncOptions{})
//	defer closeFn(context.Background())
//
//	_ = async.Record(ctx, audit.Event{
//	    Action:     "rbac.role.updated",
//	    ActionType: audit.ActionUpdated,
//	    ActorID:    actorID,
//	})
package audit
