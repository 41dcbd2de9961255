// ABOUTME: Error taxonomy for location acquisition and clipboard writes
// ABOUTME: LocationUnavailableError matches ErrLocationUnavailable via errors.Is

package tracker

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLocationUnavailable matches every failure to obtain a location.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrClipboardUnavailable is returned when the share link cannot be
	// written to a clipboard.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// Reason classifies a location failure.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission denied"
	ReasonTimeout          Reason = "timeout"
	ReasonUnsupported      Reason = "geolocation not supported"
	ReasonNoFix            Reason = "position unavailable"
	ReasonInvalid          Reason = "invalid sample"
)

// LocationUnavailableError describes why a sample could not be produced.
type LocationUnavailableError struct {
	Reason Reason
	Err    error
}

func (e *LocationUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("location unavailable: %s", e.Reason)
}

func (e *LocationUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLocationUnavailable) true for any reason.
func (e *LocationUnavailableError) Is(target error) bool {
	return target == ErrLocationUnavailable
}

// Unavailable wraps err as a LocationUnavailableError.
func Unavailable(reason Reason, err error) error {
	return &LocationUnavailableError{Reason: reason, Err: err}
}

// asUnavailable normalizes a provider error. Context deadlines become
// timeouts; anything not already classified is a missing fix.
func asUnavailable(err error) error {
	var lue *LocationUnavailableError
	if errors.As(err, &lue) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(ReasonTimeout, err)
	}
	return Unavailable(ReasonNoFix, err)
}
