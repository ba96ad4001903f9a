package backend

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	dmstrings "datamart/pkg/strings"
)

// ErrMissingToken is returned when a 2xx token response carries no token.
var ErrMissingToken = errors.New("response did not contain a token")

// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the backend's explanation, if it gave one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// errorBody covers the two error shapes the backend produces:
// FastAPI's {"detail": "..."} and the generic {"error": "...", "message": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return dmstrings.Truncate(string(body), 200)
	}

	if len(eb.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(eb.Detail, &detail); err == nil {
			return detail
		}
		// Validation errors arrive as a list of {loc, msg, type}.
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(eb.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}

// TransportErrorType categorizes the type of transport failure.
type TransportErrorType int

const (
	// TransportErrorUnknown indicates an unclassified transport error.
	TransportErrorUnknown TransportErrorType = iota
	// TransportErrorTLS indicates a TLS/certificate verification error.
	TransportErrorTLS
	// TransportErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	TransportErrorNetwork
	// TransportErrorTimeout indicates a timeout.
	TransportErrorTimeout
	// TransportErrorDNS indicates a DNS resolution failure.
	TransportErrorDNS
)

// String returns a human-readable name for the transport error type.
func (t TransportErrorType) String() string {
	switch t {
	case TransportErrorTLS:
		return "TLS certificate error"
	case TransportErrorNetwork:
		return "Network error"
	case TransportErrorTimeout:
		return "Connection timeout"
	case TransportErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// TransportError indicates the backend could not be reached.
type TransportError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the failure.
	Type TransportErrorType
	// Reason is the underlying error.
	Reason error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s reaching %s: %v", e.Type, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Reason
}

// Hint returns a short suggestion for the user.
func (e *TransportError) Hint() string {
	switch e.Type {
	case TransportErrorTLS:
		return "The server certificate could not be verified. Check api.url uses the right scheme and host."
	case TransportErrorDNS:
		return "The host name could not be resolved. Check api.url in your configuration."
	case TransportErrorTimeout:
		return "The request timed out. The backend may be overloaded; try again or raise api.timeout."
	case TransportErrorNetwork:
		return "The backend refused the connection. Is it running at the configured api.url?"
	default:
		return "Check your network connection and the configured api.url."
	}
}

// ClassifyTransportError wraps err in a TransportError of the matching type.
// If the error is nil, returns nil.
func ClassifyTransportError(err error, endpoint string) *TransportError {
	if err == nil {
		return nil
	}

	te := &TransportError{Endpoint: endpoint, Type: TransportErrorUnknown, Reason: err}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		te.Type = TransportErrorTLS
	case errors.As(err, &dnsErr):
		te.Type = TransportErrorDNS
	case isTimeoutError(err):
		te.Type = TransportErrorTimeout
	case isNetworkError(err.Error()):
		te.Type = TransportErrorNetwork
	}
	return te
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	// net.Error is an interface, so errors.As cannot walk to it.
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
