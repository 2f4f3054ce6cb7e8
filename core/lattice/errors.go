package lattice

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for requests the lattice cannot be built from
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNumericOverflow is returned when derived factors or lattice prices leave float64 range
	ErrNumericOverflow = errors.New("numeric overflow")
)

// ParameterError describes a rejected request field
type ParameterError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidParameter, e.Field, e.Reason)
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s=%v", ErrInvalidParameter, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s=%v: %s", ErrInvalidParameter, e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidParameter
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// OverflowError names the derived quantity that stopped being finite
type OverflowError struct {
	Factor string
	Value  float64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrNumericOverflow, e.Factor, e.Value)
}

// Unwrap lets errors.Is match ErrNumericOverflow
func (e *OverflowError) Unwrap() error {
	return ErrNumericOverflow
}
