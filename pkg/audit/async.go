package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AsyncOptions configures the buffering behavior of AsyncSink.
type AsyncOptions struct {
	BufferSize     int           // Max events queued in memory before writes degrade to synchronous
	StorageTimeout time.Duration // Per-write timeout applied by the background worker
	Logger         *slog.Logger  // Destination for swallowed write failures
}

// AsyncSink decorates another sink with a single background worker so that
// Record never blocks the caller on audit I/O. Events are delivered in the
// order they were recorded. Write failures are logged, never returned:
// availability of the protected operation takes priority over audit
// durability.
type AsyncSink struct {
	next    Sink
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	log     *slog.Logger
	timeout time.Duration

	closeOnce sync.Once
}

// NewAsyncSink wraps next with a background worker. The returned close
// function drains buffered events; call it during shutdown.
func NewAsyncSink(next Sink, opts AsyncOptions) (*AsyncSink, func(context.Context) error) {
	if next == nil {
		panic("audit: next sink cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &AsyncSink{
		next:    next,
		events:  make(chan Event, opts.BufferSize),
		done:    make(chan struct{}),
		log:     opts.Logger,
		timeout: opts.StorageTimeout,
	}

	s.wg.Add(1)
	go s.worker()

	return s, s.Close
}

// Record queues the event for background delivery. The generated fields are
// stamped here so the event reflects the moment of the triggering operation,
// not the moment the worker gets to it.
func (s *AsyncSink) Record(ctx context.Context, event Event) error {
	event = Stamp(event)
	if err := event.Validate(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.events <- event:
		return nil
	default:
		// Buffer full: write synchronously rather than drop the event.
		return s.store(event)
	}
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.events:
			if err := s.store(event); err != nil {
				s.log.Error("audit event dropped",
					slog.String("action", event.Action),
					slog.String("event_id", event.ID),
					slog.Any("error", err),
				)
			}
		case <-s.done:
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case event := <-s.events:
					if err := s.store(event); err != nil {
						s.log.Error("audit event dropped during shutdown",
							slog.String("action", event.Action),
							slog.Any("error", err),
						)
					}
				default:
					return
				}
			}
		}
	}
}

// store writes with a detached context so a cancelled request context cannot
// take the audit write down with it. A panicking sink is contained here: it
// must never escape into the worker or the recording caller.
func (s *AsyncSink) store(event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit: sink panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.next.Record(ctx, event)
}

// Close stops the worker after draining buffered events. The context bounds
// how long the drain may take.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
