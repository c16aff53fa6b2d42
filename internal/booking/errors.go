package booking

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable failure kind. The HTTP layer maps reasons to
// differentiated responses; raw store error text never reaches the client.
type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonUnknownService    Reason = "unknown_service"
	ReasonValidationFailed  Reason = "validation_failed"
	ReasonPersistenceFailed Reason = "persistence_failed"
	ReasonNotFound          Reason = "not_found"
	ReasonNotAuthorized     Reason = "not_authorized"
	ReasonInvalidTransition Reason = "invalid_transition"
)

// ErrAppointmentNotFound marks the ordinary "no such appointment/receipt"
// outcome, distinct from transport or store failures.
var ErrAppointmentNotFound = errors.New("booking: appointment not found")

// ErrNoDraft is returned when a draft operation runs without a prior Start.
var ErrNoDraft = errors.New("booking: no draft in progress")

// BookingError describes a failed confirm or lookup attempt.
type BookingError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking: %s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("booking: %s: %s", e.Reason, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

// CancellationError describes a failed cancel attempt.
type CancellationError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *CancellationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking: cancel: %s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("booking: cancel: %s: %s", e.Reason, e.Message)
}

func (e *CancellationError) Unwrap() error { return e.Err }

func bookingErr(reason Reason, msg string) *BookingError {
	return &BookingError{Reason: reason, Message: msg}
}

func bookingWrap(reason Reason, msg string, err error) *BookingError {
	return &BookingError{Reason: reason, Message: msg, Err: err}
}

func cancelErr(reason Reason, msg string) *CancellationError {
	return &CancellationError{Reason: reason, Message: msg}
}

func cancelWrap(reason Reason, msg string, err error) *CancellationError {
	return &CancellationError{Reason: reason, Message: msg, Err: err}
}
