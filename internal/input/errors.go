package input

import "errors"

var (
	// ErrClosed is returned by Handle after Close.
	ErrClosed = errors.New("engine is closed")

	// ErrNotAnEditorCommand is returned for unknown ex commands.
	ErrNotAnEditorCommand = errors.New("not an editor command")

	// ErrInvalidArgument is returned for malformed ex command arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownOption is returned by :set for unknown options.
	ErrUnknownOption = errors.New("unknown option")

	// ErrOperatorMismatch is returned when the line keys of one operator
	// follow another operator, as in dc.
	ErrOperatorMismatch = errors.New("operator mismatch")

	// ErrNotACharacter is returned when a command needing a character
	// argument gets a key without one.
	ErrNotACharacter = errors.New("key is not a character")

	// ErrNoPreviousSelection is returned by gv before any selection.
	ErrNoPreviousSelection = errors.New("no previous selection")

	// ErrUndoUnsupported is returned by u when the buffer keeps no history.
	ErrUndoUnsupported = errors.New("undo is not supported by the buffer")
)
