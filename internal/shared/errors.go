package shared

import "errors"

var (
	// ErrNotFound indicates resource not found. Services also return it when
	// the actor has no visibility at all, so existence is never leaked.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation (e.g. code already taken).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the actor can see the resource but lacks the
	// access level the operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates malformed or invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTenantSuspended indicates the tenant account is not active.
	ErrTenantSuspended = errors.New("tenant suspended")
)
