package register

import "errors"

// Register errors.
var (
	// ErrInvalidRegister indicates an unknown register name.
	ErrInvalidRegister = errors.New("invalid register")

	// ErrReadOnly indicates a write to a read-only register.
	ErrReadOnly = errors.New("register is read-only")

	// ErrNoEvaluator indicates the expression register has no evaluator.
	ErrNoEvaluator = errors.New("no expression evaluator")

	// ErrInvalidClipboardOption indicates an unknown 'clipboard' value.
	ErrInvalidClipboardOption = errors.New("invalid clipboard option")
)
