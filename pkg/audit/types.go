package audit

import (
	"fmt"
	"time"
)

// ActionType classifies the mutation an event describes.
type ActionType string

const (
	ActionEnabled  ActionType = "ENABLED"
	ActionDisabled ActionType = "DISABLED"
	ActionCreated  ActionType = "CREATED"
	ActionUpdated  ActionType = "UPDATED"
	ActionDeleted  ActionType = "DELETED"
)

// Event is a single append-only audit record.
type Event struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id,omitempty"`
	ActorID      string         `json:"actor_id"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ActionType   ActionType     `json:"action_type"`
	Action       string         `json:"action"`
	Reason       string         `json:"reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks that the event carries the fields every record must have.
func (e Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrEventValidation)
	}
	return nil
}
