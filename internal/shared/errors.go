package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the target record does not exist or is ineligible.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a capability check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed or rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrPreconditionFailed indicates a missing or incorrect current password.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrConflict indicates a uniqueness violation surfaced by the store.
	ErrConflict = errors.New("conflict")
	// ErrDeliveryFailed indicates the notifier reported a synchronous failure.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// ConflictError reports which field violated a uniqueness constraint. It
// matches ErrConflict under errors.Is so callers never string-match driver
// error text.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already taken", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
