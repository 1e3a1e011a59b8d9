package session

import (
	"errors"
	"fmt"
)

// ErrNotManaged is returned when a close request targets a conversation
// the engine has never opened.
var ErrNotManaged = errors.New("session: conversation is not managed")

// CapabilityError means the messaging platform denied an action the
// engine needed. It is surfaced to the requesting user as an actionable
// message and is never fatal.
type CapabilityError struct {
	Action string
	Err    error
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("missing platform permission to %s: %v", e.Action, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// IsCapabilityError checks if an error is a platform permission failure.
func IsCapabilityError(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}
