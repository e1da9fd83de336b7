package calc

import (
	"errors"
	"fmt"
)

// User-facing messages.
const (
	MsgEmptyExpression = "Please enter a function"
	MsgGenericFailure  = "Calculation failed"
)

// ValidationError is raised before any network call when a required
// field is missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrEmptyExpression is returned by the request builder for a blank expression.
var ErrEmptyExpression = &ValidationError{Field: "expression", Message: MsgEmptyExpression}

// TransportError is a network or decoding failure. No service detail is
// available, so the message is always generic.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return MsgGenericFailure }

func (e *TransportError) Unwrap() error { return e.Cause }

// ServiceError is returned when the request reached the service but it
// reported failure, either through a non-2xx status or success=false.
type ServiceError struct {
	StatusCode int
	Message    string // service-provided error text, may be empty
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return MsgGenericFailure
}

// Detail returns a diagnostic string including the HTTP status.
func (e *ServiceError) Detail() string {
	return fmt.Sprintf("service error (status %d): %s", e.StatusCode, e.Error())
}

// UserMessage returns the text to show in the error banner for err.
// Every error kind collapses to a single line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	var te *TransportError
	var se *ServiceError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &te):
		return te.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgGenericFailure
}

// Kind names the error category for metrics and history.
func Kind(err error) string {
	var ve *ValidationError
	var te *TransportError
	var se *ServiceError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &se):
		return "service"
	case errors.As(err, &te):
		return "transport"
	}
	return "unknown"
}
