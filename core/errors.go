package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("not found")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// UpstreamError reports a failure of an external collaborator (tables, files, ai).
type UpstreamError struct {
	Service string
	Err     error
}

func NewUpstreamError(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

func (err UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", err.Service, err.Err)
}

func (err UpstreamError) Unwrap() error { return err.Err }

// IsUpstream reports whether err was caused by an external collaborator.
func IsUpstream(err error) bool {
	_, ok := errors.Cause(err).(*UpstreamError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
