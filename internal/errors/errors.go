// Package errors provides error classification for the outer surfaces.
// Core packages return sentinel-wrapped errors; this package maps them onto
// stable codes for the API and the CLI.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"option-lattice/core/book"
	"option-lattice/core/lattice"
)

// Type identifies the category of error
type Type string

const (
	// TypeInvalidParameter indicates a request the lattice rejects
	TypeInvalidParameter Type = "INVALID_PARAMETER"

	// TypeNumericOverflow indicates derived factors left float64 range
	TypeNumericOverflow Type = "NUMERIC_OVERFLOW"

	// TypeInvalidJSON indicates an undecodable request body
	TypeInvalidJSON Type = "INVALID_JSON"

	// TypeInvalidBook indicates a book file that could not be parsed
	TypeInvalidBook Type = "INVALID_BOOK"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeCanceled indicates the caller went away
	TypeCanceled Type = "CANCELED"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a classified error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error type onto a response status
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeInvalidParameter, TypeInvalidJSON, TypeInvalidBook:
		return http.StatusBadRequest
	case TypeNumericOverflow:
		return http.StatusUnprocessableEntity
	case TypeCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// Classify maps any error onto a typed Error. Already-classified errors are
// returned as is; lattice errors keep their field or factor as context.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if stderrors.As(err, &classified) {
		return classified
	}

	var pe *lattice.ParameterError
	if stderrors.As(err, &pe) {
		return Wrap(TypeInvalidParameter, "invalid pricing request", err).WithContext("field", pe.Field)
	}
	var oe *lattice.OverflowError
	if stderrors.As(err, &oe) {
		return Wrap(TypeNumericOverflow, "lattice factors overflow", err).WithContext("factor", oe.Factor)
	}

	switch {
	case stderrors.Is(err, lattice.ErrInvalidParameter):
		return Wrap(TypeInvalidParameter, "invalid pricing request", err)
	case stderrors.Is(err, lattice.ErrNumericOverflow):
		return Wrap(TypeNumericOverflow, "lattice factors overflow", err)
	case stderrors.Is(err, book.ErrInvalidBook):
		return Wrap(TypeInvalidBook, "cannot parse book", err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(TypeCanceled, "request canceled", err)
	}
	return Wrap(TypeInternal, "internal error", err)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}
