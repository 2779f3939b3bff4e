package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the backend could not be reached at all.
	ErrUnavailable = errors.New("sector service unavailable")

	// ErrInvalidResponse indicates a 2xx response whose body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from sector service")
)

// ProblemDetail is the error body returned by the backend for any non-2xx
// response. Errors maps field names to messages on validation failures.
type ProblemDetail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail"`
	Instance string            `json:"instance"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// RequestError is returned for every non-2xx response.
type RequestError struct {
	Status  int
	Problem ProblemDetail
}

func (e *RequestError) Error() string {
	if e.Problem.Detail != "" {
		return e.Problem.Detail
	}
	if e.Problem.Title != "" {
		return e.Problem.Title
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// HasFieldErrors reports whether the backend rejected individual fields.
func (e *RequestError) HasFieldErrors() bool {
	return len(e.Problem.Errors) > 0
}

// AsRequestError unwraps err into a *RequestError if it carries one.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
