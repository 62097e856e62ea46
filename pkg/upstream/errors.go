package upstream

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// TransportError is a failed attempt that produced no usable response:
// connection errors, per-attempt timeouts, unreadable bodies, and 2xx
// bodies that are not valid JSON. It is always retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "upstream transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the status is worth another attempt
// (429 or any 5xx).
func (e *StatusError) Retryable() bool {
	return retryableStatus(e.StatusCode)
}

// ExhaustedError is returned once every attempt failed with a retryable
// error. It unwraps to the error of the last attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("upstream failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// IsRetryable reports whether err describes a single failed attempt that
// the client would retry. Exhaustion and cancellation are final.
func IsRetryable(err error) bool {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// newStatusError builds a StatusError, preferring the Google-style
// {"error":{"message":...}} body when present.
func newStatusError(code int, body []byte) *StatusError {
	message := ""
	if gjson.ValidBytes(body) {
		message = gjson.GetBytes(body, "error.message").String()
	}
	if message == "" {
		message = http.StatusText(code)
	}
	return &StatusError{StatusCode: code, Message: message}
}
