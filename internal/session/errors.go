package session

import (
	"context"
	"errors"
	"fmt"

	"datamart/internal/backend"
)

// Error kinds. Every *Error carries exactly one of them; match with errors.Is.
var (
	// ErrTransportFailure means the backend could not be reached.
	ErrTransportFailure = errors.New("transport failure")

	// ErrAuthenticationRejected means the backend refused the credentials or token.
	ErrAuthenticationRejected = errors.New("authentication rejected")

	// ErrInvalidCallback means the OAuth redirect parameters were missing,
	// malformed, or did not match the pending flow.
	ErrInvalidCallback = errors.New("invalid OAuth callback")

	// ErrValidationFailure means the input was rejected before any network call.
	ErrValidationFailure = errors.New("validation failure")

	// ErrStorageFailure means the stored token could not be read, written
	// or removed.
	ErrStorageFailure = errors.New("local storage failure")
)

// Error is the outcome of a failed session operation.
type Error struct {
	// Op is the operation that failed, e.g. "login".
	Op string
	// Kind is one of the Err* sentinels.
	Kind error
	// Message is shown to the user.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, msg)
}

// Unwrap exposes both the kind and the cause, so errors.Is matches the
// sentinel and errors.As reaches backend error types.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// classify turns a backend error into a session error.
func classify(op string, err error) *Error {
	var se *backend.StatusError
	var te *backend.TransportError

	switch {
	case errors.As(err, &se):
		msg := se.Message
		if msg == "" {
			msg = fmt.Sprintf("the server answered %d", se.StatusCode)
		}
		return &Error{Op: op, Kind: ErrAuthenticationRejected, Message: msg, Err: err}
	case errors.As(err, &te):
		return &Error{Op: op, Kind: ErrTransportFailure, Message: te.Type.String(), Err: err}
	case errors.Is(err, backend.ErrMissingToken), errors.Is(err, backend.ErrMalformedResponse):
		return &Error{Op: op, Kind: ErrAuthenticationRejected, Message: "the server sent an unusable response", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Op: op, Kind: ErrTransportFailure, Message: "request cancelled", Err: err}
	default:
		return &Error{Op: op, Kind: ErrTransportFailure, Err: err}
	}
}
