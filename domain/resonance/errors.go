package resonance

import (
	"fmt"

	"github.com/qqewq/harmonized-mind/domain/core"
)

// InvalidInputError rejects a request before generation. It unwraps to core.ErrInvalidInput.
type InvalidInputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return core.ErrInvalidInput
}

// NewInvalidInput builds an InvalidInputError for a named field.
func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// DegenerateInputError means D_fractal collapsed for one candidate. The engine excludes that
// candidate from ranking instead of failing the run.
type DegenerateInputError struct {
	HypothesisID int
	Reason       string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input for hypothesis %d: %s", e.HypothesisID, e.Reason)
}

func (e *DegenerateInputError) Unwrap() error { return core.ErrDegenerateInput }
