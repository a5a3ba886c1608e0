package model

import (
	"fmt"
	"maps"
	"net/http"
	"time"
)

// Error kinds synthesized by the front-end itself.
const (
	KindForbidden          = "FORBIDDEN"
	KindNotFound           = "NOT_FOUND"
	KindServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the error payload produced by the backends. A zero Status means
// the failure never reached a server.
type APIError struct {
	Status      int               `json:"status,omitempty"`
	Kind        string            `json:"error,omitempty"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Path        string            `json:"path,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// IsZero reports whether the payload is empty.
func (e APIError) IsZero() bool {
	return e.Status == 0 && e.Kind == "" && e.Message == "" && e.Path == "" &&
		e.Timestamp == "" && len(e.FieldErrors) == 0
}

// IsValidation reports a 400 response, rendered inline next to the form.
func (e APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest
}

// Escalates reports whether the failure must be surfaced on the error page.
func (e APIError) Escalates() bool {
	return e.Status != 0 && e.Status != http.StatusBadRequest
}

// Clone returns a copy that shares no map with e.
func (e APIError) Clone() APIError {
	e.FieldErrors = maps.Clone(e.FieldErrors)
	return e
}

// Timestamp formats t the way browser clients do: UTC with milliseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Forbidden builds the payload recorded when a role is not allowed on path.
func Forbidden(path string, now time.Time) APIError {
	return APIError{
		Status:    http.StatusForbidden,
		Kind:      KindForbidden,
		Message:   "Vous n'êtes pas autorisés à consulter cette page",
		Path:      path,
		Timestamp: Timestamp(now),
	}
}

// NotFound builds the payload recorded for an unknown page.
func NotFound(path string, now time.Time) APIError {
	return APIError{
		Status:    http.StatusNotFound,
		Kind:      KindNotFound,
		Message:   "La page que vous cherchez n'existe pas.",
		Path:      path,
		Timestamp: Timestamp(now),
	}
}
