package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCategory = errors.New("unknown category")

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateInput  = errors.New("degenerate input for significance test")
	ErrEmptyCohort      = errors.New("no strata left to plot")

	// Unsupported layouts
	ErrNotImplemented = errors.New("not implemented")
)

// Error constructors with context
func NewUnknownCategoryError(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownCategory, kind, name)
}

func NewInvalidInputError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewDegenerateInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, reason)
}

// Error checking helpers
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrNotImplemented)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateInput) ||
		errors.Is(err, ErrEmptyCohort)
}
