package apiclient

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON is returned when a successful response body is not JSON.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// RequestError reports a non-2xx response. Message is the response body text,
// or the status line when the body was empty.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	return StatusOf(err) == status
}
