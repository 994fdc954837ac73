package transport

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response body is retained
// for diagnostics.
const maxErrorBody = 4096

// Error is a failed HTTP exchange with the Jira API. It carries the
// status code and a bounded copy of the response body so callers can
// classify the failure without re-reading the wire.
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("jira API returned %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Temporary reports whether the failure is worth retrying.
func (e *Error) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// newError builds an Error from a non-2xx response, consuming at most
// maxErrorBody bytes of the body.
func newError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := string(body)
	if msg == "" {
		msg = resp.Status
	}
	return &Error{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Body:       body,
	}
}
