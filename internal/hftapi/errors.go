package hftapi

import (
	"errors"
	"fmt"
)

// ErrTransport marks every failure to obtain a successful HTTP response.
var ErrTransport = errors.New("transport failure")

// StatusError is returned when the backend answers with a non-2xx status.
// It matches ErrTransport under errors.Is.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s %s: %s", e.Code, e.Method, e.Path, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrTransport }

// ShapeError is returned when a successful response does not have the
// expected JSON shape, e.g. an object where a list was expected.
type ShapeError struct {
	Path string
	Err  error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape from %s: %v", e.Path, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// IsShapeError reports whether err carries a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
