package principal

import "errors"

var (
	// ErrNoPrincipal is returned when an operation requires a principal
	// and none was provided.
	ErrNoPrincipal = errors.New("principal: no principal")

	// ErrBypassContract is returned when a bypass transition is attempted
	// without the required actor id or reason, or from the wrong state.
	// This is a caller programming defect, not a runtime condition.
	ErrBypassContract = errors.New("principal: bypass contract violation")

	// ErrUnauthenticated is returned by the middleware when the identity
	// verifier rejects the request credential.
	ErrUnauthenticated = errors.New("principal: unauthenticated")
)
