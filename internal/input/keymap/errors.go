package keymap

import (
	"errors"
	"fmt"

	"github.com/dshills/modalkit/internal/input/mode"
)

var (
	// ErrEmptySequence is returned when binding an empty key sequence.
	ErrEmptySequence = errors.New("empty key sequence")

	// ErrNoModes is returned when binding in an empty mode set.
	ErrNoModes = errors.New("no modes")

	// ErrNoSuchMapping is returned by Unmap for an unknown mapping.
	ErrNoSuchMapping = errors.New("no such mapping")

	// ErrMappingExists is returned for <unique> mappings that already
	// exist.
	ErrMappingExists = errors.New("mapping already exists")

	// ErrNoEffect is returned for descriptors without an effect.
	ErrNoEffect = errors.New("descriptor has no effect")
)

// ConflictError is returned when a key sequence is registered twice for
// the same mode.
type ConflictError struct {
	Keys  string
	Modes mode.Set
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate key sequence %q in modes %q", e.Keys, e.Modes)
}

// RecursiveMappingError is returned when mapping expansion exceeds the
// depth limit.
type RecursiveMappingError struct {
	Keys  string
	Depth int
}

func (e *RecursiveMappingError) Error() string {
	return fmt.Sprintf("recursive mapping %q (depth %d)", e.Keys, e.Depth)
}

// NoMatchError is returned when typed keys match no command.
type NoMatchError struct {
	Keys string
	Mode string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no command %q in %s mode", e.Keys, e.Mode)
}
