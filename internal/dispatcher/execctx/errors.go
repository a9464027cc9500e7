package execctx

import (
	"errors"
	"fmt"
)

// Context validation errors.
var (
	// ErrMissingBuffer indicates the buffer is required but not set.
	ErrMissingBuffer = errors.New("execution context: buffer is required")

	// ErrMissingModes indicates the mode machine is required but not set.
	ErrMissingModes = errors.New("execution context: mode machine is required")

	// ErrMissingRegisters indicates the register store is required but not set.
	ErrMissingRegisters = errors.New("execution context: registers are required")

	// ErrMissingComposer indicates the composer is required but not set.
	ErrMissingComposer = errors.New("execution context: composer is required")

	// ErrNoEvaluator indicates an expression was used without an evaluator.
	ErrNoEvaluator = errors.New("no expression evaluator")
)

// EvalError is returned when an expression fails to evaluate.
type EvalError struct {
	Source string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Source, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
