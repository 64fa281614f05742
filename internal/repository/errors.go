// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not the
// holder of a seat's lock, while ErrConflict signals that an atomic
// compare-and-transition lost a race against a concurrent operation.
package repository

import "errors"

// ErrSeatNotFound is returned when the requested seat id does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrConflict is returned when a compare-and-transition failed because
// another concurrent operation changed the seat's state first. The
// overall user intent may be retried (e.g. re-lock) but the same call
// must not be blindly repeated. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller is not the current lock
// holder, or the seat is in a state that disallows the requested
// transition for reasons unrelated to a race. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrLockExpired is returned when the caller held a lock whose TTL
// lapsed before finalisation. It is distinct from ErrForbidden so that
// clients can react by acquiring a fresh lock rather than treating the
// failure as unauthorised.
var ErrLockExpired = errors.New("lock expired")
