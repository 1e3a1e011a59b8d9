package completion

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError indicates the completion call exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("completion timed out after %s", e.Timeout)
}

// UpstreamError indicates the service answered with a non-success status.
type UpstreamError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion service returned %d", e.StatusCode)
}

// DecodeError indicates a transport failure or an unparseable response.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("completion response unusable: %v", e.Err)
}

// Unwrap exposes the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTimeout checks if an error is a completion timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsUpstream checks if an error is an upstream HTTP failure.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsDecode checks if an error is a transport or parse failure.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
