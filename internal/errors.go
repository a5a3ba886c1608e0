package internal

import (
	"errors"
	"net/http"
)

var (
	ErrNoStore    = errors.New("internal: state registry not configured")
	ErrNoSessions = errors.New("internal: session manager not configured")
	ErrNoBackends = errors.New("internal: backend client not configured")
	ErrStartup    = errors.New("internal: startup hook failed")
)

// HTTPError is a handler failure carrying the status the error page shows.
type HTTPError struct {
	// Err is the underlying cause; logged, never rendered.
	Err error

	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// NewHTTPError creates an HTTPError. A nil cause is allowed.
func NewHTTPError(code int, message string, cause error) *HTTPError {
	return &HTTPError{Code: code, Message: message, Err: cause}
}

func ErrBadRequest(message string, cause error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, cause)
}

func ErrNotFound(message string, cause error) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, cause)
}

func ErrInternal(message string, cause error) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, cause)
}

// AsHTTPError extracts an HTTPError anywhere in the chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
