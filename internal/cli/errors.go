package cli

import (
	"errors"
	"fmt"

	"datamart/internal/backend"
	"datamart/internal/session"
)

// AuthRequiredError indicates the command needs a session and there is none.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Endpoint is the backend that requires authentication.
	Endpoint string
	// Reason is the underlying error, if any.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Not logged in to %s

To log in, run:
  datamart auth login <email>

Or with an identity provider:
  datamart auth login --provider google`, e.Endpoint)
}

// Unwrap returns the underlying error.
func (e *AuthRequiredError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthFailedError indicates the backend rejected credentials, a token or an
// OAuth callback.
type AuthFailedError struct {
	// Endpoint is the backend where authentication failed.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %s

To retry, run:
  datamart auth login <email>`, e.Endpoint, reasonText(e.Reason))
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// InvalidInputError indicates input was rejected before any request was made.
type InvalidInputError struct {
	// Reason is the underlying error.
	Reason error
}

// Error returns the validation message.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("Invalid input: %s", reasonText(e.Reason))
}

// Unwrap returns the underlying error.
func (e *InvalidInputError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// ConnectionError indicates the backend could not be reached.
type ConnectionError struct {
	// Transport is the classified failure.
	Transport *backend.TransportError
}

// Error returns the failure with a hint.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: cannot reach %s\n\n%s", e.Transport.Type, e.Transport.Endpoint, e.Transport.Hint())
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Transport
}

// Translate turns a session or marketplace error into the CLI error that
// tells the user what to do next. Errors it does not recognize are returned
// unchanged.
func Translate(err error, endpoint string) error {
	if err == nil || isTranslated(err) {
		return err
	}

	var te *backend.TransportError
	if errors.As(err, &te) {
		return &ConnectionError{Transport: te}
	}

	switch {
	case errors.Is(err, session.ErrValidationFailure):
		return &InvalidInputError{Reason: err}
	case errors.Is(err, session.ErrNoSession):
		return &AuthRequiredError{Endpoint: endpoint, Reason: err}
	case errors.Is(err, session.ErrAuthenticationRejected), errors.Is(err, session.ErrInvalidCallback):
		return &AuthFailedError{Endpoint: endpoint, Reason: err}
	case errors.Is(err, session.ErrTransportFailure):
		return &ConnectionError{Transport: &backend.TransportError{Endpoint: endpoint, Reason: err}}
	}
	return err
}

func isTranslated(err error) bool {
	var (
		required *AuthRequiredError
		failed   *AuthFailedError
		invalid  *InvalidInputError
		conn     *ConnectionError
	)
	return errors.As(err, &required) || errors.As(err, &failed) ||
		errors.As(err, &invalid) || errors.As(err, &conn)
}

// reasonText prefers the user-facing message of a session error.
func reasonText(err error) string {
	if err == nil {
		return "unknown reason"
	}
	var serr *session.Error
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return err.Error()
}
