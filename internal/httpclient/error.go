package httpclient

import (
	"fmt"
	"net/http"

	ierr "github.com/flexprice/recurring/internal/errors"
)

// Error represents a non-2xx response from an upstream API
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, truncate(e.Response, 256))
}

// NewError wraps a failed response. A 404 is marked as not found, a 409 or
// 422 as a validation failure, everything else as an http client error.
func NewError(statusCode int, response []byte) error {
	httpErr := &Error{StatusCode: statusCode, Response: response}
	b := ierr.WithError(httpErr).
		WithReportableDetails(map[string]any{"status_code": statusCode})

	switch statusCode {
	case http.StatusNotFound:
		return b.WithHint("The requested upstream resource was not found").Mark(ierr.ErrNotFound)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return b.WithHint("The upstream service rejected the request").Mark(ierr.ErrValidation)
	default:
		return b.WithHint("The upstream service returned an error").Mark(ierr.ErrHTTPClient)
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if ierr.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
