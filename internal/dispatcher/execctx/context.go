// Package execctx provides the execution context handed to command actions.
package execctx

import (
	"errors"

	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// Notifier receives the messages a command produces for the user.
type Notifier interface {
	// ReportError reports a failed command, typically with a beep.
	ReportError(msg string)

	// StatusMessage shows an informational message.
	StatusMessage(msg string)
}

// Evaluator evaluates expressions for the = register, <C-r>= and
// <expr> mappings.
type Evaluator interface {
	// Evaluate evaluates src and returns its string value. Failures are
	// reported as *EvalError.
	Evaluate(src string) (string, error)
}

// Context is the execution context of one command. Every field is set by
// the dispatch loop before the action runs; the action reports the new
// caret through Caret.
type Context struct {
	// Buffer is the text being edited.
	Buffer buffer.Provider

	// Registers is the register store of the view.
	Registers *register.Store

	// Modes is the mode machine of the engine.
	Modes *mode.Machine

	// Composer resolves operator ranges.
	Composer *vim.Composer

	// State holds the desired column and the last find and search.
	State *vim.State

	// Caret is the caret offset. Actions update it in place.
	Caret int

	// Anchor is the other end of the selection in Visual and Select
	// modes.
	Anchor int

	// Count is the count typed before the command; zero means none.
	Count int

	// Register is the register selected with "x, or zero.
	Register rune

	// Char is the character argument of commands like r and f.
	Char rune

	// Str is the ex-string argument.
	Str string

	// Keys are the keys that selected the command, after mapping.
	Keys key.Sequence

	// Repeating is set while the command is replayed by dot-repeat.
	Repeating bool

	Notifier  Notifier
	Evaluator Evaluator
}

// New creates an execution context for buf.
func New(buf buffer.Provider) *Context {
	return &Context{Buffer: buf}
}

// WithRegisters returns the context with the register store set.
func (ctx *Context) WithRegisters(regs *register.Store) *Context {
	ctx.Registers = regs
	return ctx
}

// WithModes returns the context with the mode machine set.
func (ctx *Context) WithModes(m *mode.Machine) *Context {
	ctx.Modes = m
	return ctx
}

// WithComposer returns the context with the composer and column state set.
func (ctx *Context) WithComposer(c *vim.Composer, st *vim.State) *Context {
	ctx.Composer = c
	ctx.State = st
	return ctx
}

// WithCaret returns the context with the caret set.
func (ctx *Context) WithCaret(caret int) *Context {
	ctx.Caret = caret
	return ctx
}

// WithCount returns the context with the count set. Negative counts are
// ignored.
func (ctx *Context) WithCount(count int) *Context {
	if count >= 0 {
		ctx.Count = count
	}
	return ctx
}

// WithNotifier returns the context with the notification sink set.
func (ctx *Context) WithNotifier(n Notifier) *Context {
	ctx.Notifier = n
	return ctx
}

// WithEvaluator returns the context with the expression evaluator set.
func (ctx *Context) WithEvaluator(e Evaluator) *Context {
	ctx.Evaluator = e
	return ctx
}

// GetCount returns the repeat count, defaulting to 1.
func (ctx *Context) GetCount() int {
	if ctx.Count <= 0 {
		return 1
	}
	return ctx.Count
}

// HasCount reports whether a count was typed.
func (ctx *Context) HasCount() bool {
	return ctx.Count > 0
}

// Mode returns the current mode, or Normal without a mode machine.
func (ctx *Context) Mode() mode.Mode {
	if ctx.Modes == nil {
		return mode.NormalMode
	}
	return ctx.Modes.Current()
}

// Snapshot returns an immutable view of the buffer.
func (ctx *Context) Snapshot() (*vim.Snapshot, error) {
	if ctx.Buffer == nil {
		return nil, ErrMissingBuffer
	}
	return vim.Take(ctx.Buffer)
}

// ReportError forwards msg to the notifier, if any.
func (ctx *Context) ReportError(msg string) {
	if ctx.Notifier != nil {
		ctx.Notifier.ReportError(msg)
	}
}

// StatusMessage forwards msg to the notifier, if any.
func (ctx *Context) StatusMessage(msg string) {
	if ctx.Notifier != nil {
		ctx.Notifier.StatusMessage(msg)
	}
}

// Evaluate evaluates src with the configured evaluator. Errors are
// always *EvalError.
func (ctx *Context) Evaluate(src string) (string, error) {
	if ctx.Evaluator == nil {
		return "", &EvalError{Source: src, Err: ErrNoEvaluator}
	}
	out, err := ctx.Evaluator.Evaluate(src)
	if err != nil {
		var ee *EvalError
		if errors.As(err, &ee) {
			return "", err
		}
		return "", &EvalError{Source: src, Err: err}
	}
	return out, nil
}

// Validate checks that the context has all required components.
func (ctx *Context) Validate() error {
	if ctx.Buffer == nil {
		return ErrMissingBuffer
	}
	if ctx.Modes == nil {
		return ErrMissingModes
	}
	return nil
}

// ValidateForEdit checks that the context is valid for editing operations.
func (ctx *Context) ValidateForEdit() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.Registers == nil {
		return ErrMissingRegisters
	}
	if ctx.Composer == nil || ctx.State == nil {
		return ErrMissingComposer
	}
	return nil
}
