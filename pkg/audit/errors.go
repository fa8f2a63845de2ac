package audit

import "errors"

var (
	// ErrEventValidation indicates the event is missing required fields.
	ErrEventValidation = errors.New("audit: event validation failed")

	// ErrSinkClosed indicates the async sink was closed before the write.
	ErrSinkClosed = errors.New("audit: sink is closed")
)
