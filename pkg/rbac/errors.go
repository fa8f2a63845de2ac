package rbac

import "errors"

var (
	// ErrRoleNotFound is returned when the requested role does not exist.
	ErrRoleNotFound = errors.New("rbac: role not found")

	// ErrInvalidRole is returned when role input fails validation.
	ErrInvalidRole = errors.New("rbac: invalid role")

	// ErrDuplicateRole is returned when a role name already exists within
	// the organization.
	ErrDuplicateRole = errors.New("rbac: role name already exists in organization")

	// ErrSystemRoleImmutable is returned for mutation attempts against
	// system roles. A permission-denied class error, not a validation one.
	ErrSystemRoleImmutable = errors.New("rbac: system roles cannot be modified or deleted")

	// ErrRoleInUse is returned when deleting a role still assigned to at
	// least one member.
	ErrRoleInUse = errors.New("rbac: role is assigned to active members")
)
