package vim

import "errors"

// Composer errors.
var (
	// ErrMotionFailed means a motion could not move, like h in column 0.
	// The command is abandoned without an edit.
	ErrMotionFailed = errors.New("motion failed")

	// ErrNoObjectFound means a text object has no match around the caret.
	ErrNoObjectFound = errors.New("no text object found")

	// ErrPatternNotFound is returned by search motions.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrNoPreviousPattern is returned by n and N before any search.
	ErrNoPreviousPattern = errors.New("no previous search pattern")

	// ErrNoSelection is returned when an operator has nothing to act on.
	ErrNoSelection = errors.New("operator needs a motion, text object or selection")
)
