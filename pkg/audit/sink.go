package audit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink durably records audit events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Stamp fills the generated fields of an event if the producer left them
// empty. Called by every sink implementation before storing.
func Stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return event
}

// MemorySink buffers events in memory. Intended for tests and local
// development where no durable backend is available.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record validates and appends the event.
func (s *MemorySink) Record(ctx context.Context, event Event) error {
	event = Stamp(event)
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of all recorded events in insertion order.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Len returns the number of recorded events.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
