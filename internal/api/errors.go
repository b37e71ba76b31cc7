// ABOUTME: Error taxonomy for backend API requests
// ABOUTME: HTTPError for non-2xx replies, NetworkError for failed round trips, ErrInvalidInput for bad identifiers

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidInput is returned for malformed identifiers, paths, or queries.
// It is raised before any network call is made.
var ErrInvalidInput = errors.New("invalid input")

// HTTPError is returned when the backend replies with a status >= 400.
type HTTPError struct {
	StatusCode int
	Status     string  // status text, e.g. "Not Found"
	Body       *string // raw response body; nil when it could not be read
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s: status %d", e.URL, e.StatusCode)
}

// NetworkError is returned when a request fails before a response arrives:
// cancellation, DNS or connection failures.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is an HTTP 401. Session-aware callers
// use it to send the user back through login.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsCanceled reports whether err comes from a canceled request.
// Cancellation is not a failure and callers should drop it silently.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTransient reports whether a retry could plausibly succeed:
// network failures that are not cancellation, and 5xx replies.
func IsTransient(err error) bool {
	if err == nil || IsCanceled(err) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	return StatusCode(err) >= 500
}

// ErrorMessage renders err for display. Controller validation errors carry an
// "__all__" list whose first entry is the most useful message; other JSON
// bodies are shown verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Body == nil {
		return err.Error()
	}

	var body map[string]json.RawMessage
	if json.Unmarshal([]byte(*httpErr.Body), &body) != nil {
		return err.Error()
	}
	if raw, ok := body["__all__"]; ok {
		var all []json.RawMessage
		if json.Unmarshal(raw, &all) == nil && len(all) > 0 {
			return string(all[0])
		}
	}
	return *httpErr.Body
}
