package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEventSQL = `
INSERT INTO audit_events (
	id, tenant_id, actor_id, resource_type, resource_id,
	action_type, action, reason, metadata, created_at
) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresSink writes events to the audit_events table created by the
// bundled migrations.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink backed by the provided pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	if pool == nil {
		panic("audit: pool cannot be nil")
	}
	return &PostgresSink{pool: pool}
}

// Record inserts a single event.
func (s *PostgresSink) Record(ctx context.Context, event Event) error {
	event = Stamp(event)
	if err := event.Validate(); err != nil {
		return err
	}

	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("audit: marshal metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, insertEventSQL,
		event.ID,
		event.TenantID,
		event.ActorID,
		event.ResourceType,
		event.ResourceID,
		string(event.ActionType),
		event.Action,
		event.Reason,
		metadata,
		event.CreatedAt,
	)
	return err
}
