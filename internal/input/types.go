package input

import (
	"github.com/dshills/modalkit/internal/input/mode"
)

// Logger is the logging interface used by the engine.
// It is satisfied by *app.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Status is a point-in-time view of the engine for status lines and hooks.
type Status struct {
	// ID identifies the engine in logs.
	ID string

	// Mode is the current mode.
	Mode mode.Mode

	// Display is the mode indicator, e.g. "-- INSERT --".
	Display string

	// PendingKeys are the keys of the command being typed.
	PendingKeys string

	// Recording is the register being recorded into, or 0.
	Recording rune

	// CommandLine is the prompt and text being edited in CommandLine mode.
	CommandLine string

	// Caret is the caret offset; Line and Column are zero-based.
	Caret  int
	Line   int
	Column int

	// Anchor is the other end of the selection when HasSelection is set.
	Anchor       int
	HasSelection bool

	// Highlight is set while the last search pattern is highlighted.
	Highlight bool
}

// discardNotifier drops every message.
type discardNotifier struct{}

func (discardNotifier) ReportError(string)   {}
func (discardNotifier) StatusMessage(string) {}
