package keymap

import (
	"fmt"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/vim"
)

// Behavior says how the dispatch loop routes a completed command.
type Behavior uint8

const (
	// BehaviorMotion moves the caret, extends a selection, or completes a
	// pending operator. Text objects and operator line keys are motions.
	BehaviorMotion Behavior = iota

	// BehaviorOperator waits for a motion in OperatorPending mode, or
	// acts on the selection in Visual mode.
	BehaviorOperator

	// BehaviorAction runs an action function.
	BehaviorAction

	// BehaviorInsertAction runs an action function while typing text.
	BehaviorInsertAction
)

// String returns the behaviour name.
func (b Behavior) String() string {
	switch b {
	case BehaviorMotion:
		return "motion"
	case BehaviorOperator:
		return "operator"
	case BehaviorAction:
		return "action"
	case BehaviorInsertAction:
		return "insert-action"
	default:
		return "unknown"
	}
}

// ArgType is the argument a command reads after its keys.
type ArgType uint8

const (
	// ArgNone takes no argument.
	ArgNone ArgType = iota

	// ArgCharacter reads one more key as a character (f{char}, r{char}).
	ArgCharacter

	// ArgMotion reads a motion or text object (operators).
	ArgMotion

	// ArgExString reads a command line terminated by <CR> (/, :).
	ArgExString
)

// String returns the argument type name.
func (a ArgType) String() string {
	switch a {
	case ArgNone:
		return "none"
	case ArgCharacter:
		return "character"
	case ArgMotion:
		return "motion"
	case ArgExString:
		return "ex-string"
	default:
		return "unknown"
	}
}

// Flags modify how a command is dispatched.
type Flags uint16

const (
	// FlagEntersInsert starts Insert mode and an insert repeat session.
	FlagEntersInsert Flags = 1 << iota

	// FlagExcludedFromDot keeps the command out of the repeat slot.
	FlagExcludedFromDot

	// FlagLinewise forces line-wise ranges.
	FlagLinewise

	// FlagKeepVisual leaves Visual mode active after the command.
	FlagKeepVisual

	// FlagChangesText marks commands that modify the buffer and are
	// therefore repeatable with dot.
	FlagChangesText

	// FlagNoCount rejects counts; the count keys go to the command.
	FlagNoCount
)

// Has reports whether every flag in f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// ActionFunc is the effect of action commands.
type ActionFunc func(ctx *execctx.Context) error

// Descriptor is an immutable command definition.
type Descriptor struct {
	// Name identifies the command in logs and listings.
	Name string

	// Keys are the literal keys of the command.
	Keys key.Sequence

	// Modes are the modes the command is defined in.
	Modes mode.Set

	Arg      ArgType
	Behavior Behavior
	Flags    Flags

	// Exactly one effect is set, matching Behavior. Operator is also set
	// on the line keys of an operator, together with Line.
	Motion   *vim.Motion
	Object   *vim.TextObject
	Operator *vim.Operator
	Line     bool
	Action   ActionFunc
}

// String returns a debug representation.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Name, d.Keys)
}

// Validate checks that the descriptor is consistent.
func (d *Descriptor) Validate() error {
	if len(d.Keys) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrEmptySequence)
	}
	if d.Modes == mode.SetNone {
		return fmt.Errorf("%s: %w", d.Name, ErrNoModes)
	}

	var ok bool
	switch d.Behavior {
	case BehaviorMotion:
		ok = d.Motion != nil || d.Object != nil || (d.Line && d.Operator != nil)
	case BehaviorOperator:
		ok = d.Operator != nil
	case BehaviorAction, BehaviorInsertAction:
		ok = d.Action != nil
	}
	if !ok {
		return fmt.Errorf("%s (%s): %w", d.Name, d.Behavior, ErrNoEffect)
	}
	return nil
}

// IsRepeatable reports whether the command goes to the repeat slot.
func (d *Descriptor) IsRepeatable() bool {
	if d.Flags.Has(FlagExcludedFromDot) {
		return false
	}
	if d.Operator != nil {
		return d.Operator.ChangesText
	}
	return d.Flags.Has(FlagChangesText) || d.Flags.Has(FlagEntersInsert)
}

// MotionDescriptor describes the motion m bound to keys.
func MotionDescriptor(m *vim.Motion, keys string, modes mode.Set) (*Descriptor, error) {
	seq, err := key.Decode(keys)
	if err != nil {
		return nil, fmt.Errorf("motion %s: %w", m.Name, err)
	}
	d := &Descriptor{
		Name:     m.Name,
		Keys:     seq,
		Modes:    modes,
		Behavior: BehaviorMotion,
		Motion:   m,
	}
	switch {
	case m.NeedsChar:
		d.Arg = ArgCharacter
	case m.NeedsString:
		d.Arg = ArgExString
	}
	if m.Kind == vim.Linewise {
		d.Flags |= FlagLinewise
	}
	return d, nil
}

// ObjectDescriptor describes the text object o bound to keys.
func ObjectDescriptor(o *vim.TextObject, keys string, modes mode.Set) (*Descriptor, error) {
	seq, err := key.Decode(keys)
	if err != nil {
		return nil, fmt.Errorf("text object %s: %w", o.Name, err)
	}
	return &Descriptor{
		Name:     o.Name,
		Keys:     seq,
		Modes:    modes,
		Behavior: BehaviorMotion,
		Object:   o,
	}, nil
}

// OperatorDescriptor describes op bound to keys.
func OperatorDescriptor(op *vim.Operator, keys string, modes mode.Set) (*Descriptor, error) {
	seq, err := key.Decode(keys)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", op.Name(), err)
	}
	d := &Descriptor{
		Name:     op.Name(),
		Keys:     seq,
		Modes:    modes,
		Arg:      ArgMotion,
		Behavior: BehaviorOperator,
		Operator: op,
	}
	if op.EntersInsert {
		d.Flags |= FlagEntersInsert
	}
	if op.ChangesText {
		d.Flags |= FlagChangesText
	}
	if op.Linewise {
		d.Flags |= FlagLinewise
	}
	return d, nil
}

// LineDescriptor describes the line keys of op, as the second d of dd.
func LineDescriptor(op *vim.Operator, keys string) (*Descriptor, error) {
	seq, err := key.Decode(keys)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", op.Name(), err)
	}
	return &Descriptor{
		Name:     op.Name() + "-lines",
		Keys:     seq,
		Modes:    mode.SetOperatorPending,
		Behavior: BehaviorMotion,
		Flags:    FlagLinewise,
		Operator: op,
		Line:     true,
	}, nil
}

// ActionDescriptor describes an action bound to keys.
func ActionDescriptor(name, keys string, modes mode.Set, fn ActionFunc, flags Flags) (*Descriptor, error) {
	seq, err := key.Decode(keys)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", name, err)
	}
	b := BehaviorAction
	if modes.Overlaps(mode.SetInsert|mode.SetCommandLine) && !modes.Overlaps(mode.SetNVO) {
		b = BehaviorInsertAction
	}
	return &Descriptor{
		Name:     name,
		Keys:     seq,
		Modes:    modes,
		Behavior: b,
		Flags:    flags,
		Action:   fn,
	}, nil
}
