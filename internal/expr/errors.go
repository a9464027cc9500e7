package expr

import "errors"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("evaluator is closed")

	// ErrTimeout is returned when an expression runs past the time limit.
	ErrTimeout = errors.New("expression timed out")

	// ErrUnconvertible is returned for results that have no text form,
	// such as functions.
	ErrUnconvertible = errors.New("value cannot be converted to text")
)
