package macro

import "errors"

var (
	// ErrAlreadyRecording is returned by StartRecording while recording.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by StopRecording when not recording.
	ErrNotRecording = errors.New("not recording")

	// ErrNotRecordable is returned for registers macros cannot be
	// recorded into.
	ErrNotRecordable = errors.New("cannot record into register")

	// ErrEmptyRegister is returned when playing an empty register.
	ErrEmptyRegister = errors.New("register is empty")

	// ErrNoPreviousMacro is returned by @@ before any macro was played.
	ErrNoPreviousMacro = errors.New("no previously used register")

	// ErrTooDeep is returned when macros nest beyond the depth limit.
	ErrTooDeep = errors.New("macro nesting too deep")

	// ErrNothingToRepeat is returned by Repeat before any change.
	ErrNothingToRepeat = errors.New("nothing to repeat")

	// ErrNestedRepeat is returned when a repeat replays a repeat.
	ErrNestedRepeat = errors.New("repeat is already running")
)
