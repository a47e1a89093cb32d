package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: analysis run", ErrNotFound)

	// Input errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownDomain = fmt.Errorf("%w: unknown domain", ErrInvalidInput)

	// Scoring errors
	ErrDegenerateInput = errors.New("degenerate input")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
)

// NewNotFoundError reports a missing resource by id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsDegenerateInputError(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}
