package input

import (
	"errors"
	"fmt"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// runMotion moves the caret, extends the selection, or completes the
// pending operator.
func (e *Engine) runMotion(d *keymap.Descriptor, keys key.Sequence, char rune, str string) error {
	if op, ok := e.modes.PendingOperator(); ok {
		return e.completeOperator(op.(*vim.Operator), d, keys, char, str)
	}

	md := e.modes.Current()
	p := e.modes.Pending()
	e.modes.ResetPending()

	if d.Object != nil {
		return e.selectObject(d.Object, p.Count)
	}
	if d.Motion == nil {
		e.settle()
		return fmt.Errorf("%w: %s", ErrOperatorMismatch, keys)
	}

	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	sel := vim.Selector{Count: p.Count, Char: char, Str: str}
	target, _, err := e.composer.Move(snap, e.motion, d.Motion, e.caret, sel)
	if d.Motion.NeedsString {
		e.noteSearch()
	}
	if err != nil {
		e.settle()
		return err
	}

	e.caret = target
	switch {
	case d.Motion == vim.MotionLineEnd:
		e.toEOL = md.IsVisual() && md.Sel == mode.SelectBlock
	case !d.Motion.KeepColumn:
		e.toEOL = false
		e.motion.UpdateColumn(snap, target)
	}
	e.settle()
	return nil
}

// completeOperator applies the pending operator over the motion, text
// object or line keys of d.
func (e *Engine) completeOperator(op *vim.Operator, d *keymap.Descriptor, keys key.Sequence, char rune, str string) error {
	p := e.modes.Pending()
	e.modes.ResetPending()

	if d.Line && d.Operator != op {
		e.settle()
		return fmt.Errorf("%w: %s%s", ErrOperatorMismatch, p.OperatorKeys, keys)
	}

	sel := vim.Selector{
		Motion: d.Motion,
		Object: d.Object,
		Line:   d.Line,
		Count:  p.Count,
		Char:   char,
		Str:    str,
	}
	rr, err := e.composer.Compose(e.buf, e.motion, op, sel, e.caret, p.OperatorCount)
	if d.Motion != nil && d.Motion.NeedsString {
		e.noteSearch()
	}
	if err != nil {
		e.settle()
		return err
	}

	change := macro.Change{
		Register:    p.Register,
		Count:       p.OperatorCount,
		OpKeys:      p.OperatorKeys,
		MotionCount: p.Count,
		MotionKeys:  keys,
	}
	return e.applyOperator(op, rr, p.Register, change)
}

// runOperator starts OperatorPending mode, or applies the operator to
// the selection.
func (e *Engine) runOperator(d *keymap.Descriptor, keys key.Sequence) error {
	if e.modes.Current().HasSelection() {
		return e.visualOperator(d.Operator, keys)
	}
	e.modes.SetKeys(keys)
	e.modes.SetPendingOperator(d.Operator)
	return nil
}

// applyOperator runs op over rr and records the change for repeat.
// Operators that enter Insert mode keep the undo group open until the
// insert ends.
func (e *Engine) applyOperator(op *vim.Operator, rr vim.RangeResult, reg rune, change macro.Change) error {
	e.beginUndo(op.Name())
	out, err := e.composer.Apply(e.env(reg), op, rr)
	if err != nil {
		e.endUndo()
		e.settle()
		return err
	}

	if op.EntersInsert && out.EntersInsert {
		e.caret = out.Caret
		e.startInsert(insertOpts{change: change, block: out.Block, undoOpen: true})
		return nil
	}

	e.endUndo()
	e.caret = out.Caret
	e.clampCaret()
	e.updateColumn()
	if op.ChangesText {
		e.noteChange(change)
	}
	e.settle()
	return nil
}

// runAction runs an action descriptor with a fresh execution context.
func (e *Engine) runAction(d *keymap.Descriptor, keys key.Sequence, char rune, str string) error {
	before := e.modes.Current().Kind
	p := e.modes.Pending()
	if d.Flags.Has(keymap.FlagNoCount) {
		p.Count = 0
	}
	e.modes.ResetPending()

	ctx := e.newContext(keys, p.Count, p.Register)
	ctx.Char = char
	ctx.Str = str

	var change *macro.Change
	if d.IsRepeatable() {
		change = &macro.Change{Register: p.Register, Count: p.Count, OpKeys: keys}
		if e.modes.Current().HasSelection() {
			if snap, err := vim.Take(e.buf); err == nil {
				x := e.extent(snap)
				change.Visual = &x
			}
		}
	}
	prev := e.action
	e.action = change
	defer func() { e.action = prev }()

	// Actions entering Insert mode leave their undo group to the insert
	// session.
	grouped := d.Flags.Has(keymap.FlagChangesText) && !d.Flags.Has(keymap.FlagEntersInsert)
	if grouped {
		e.beginUndo(d.Name)
	}

	start := ctx.Caret
	err := d.Action(ctx)
	if ctx.Caret != start {
		e.caret = ctx.Caret
	}
	if grouped {
		e.endUndo()
	}
	if err != nil {
		e.settle()
		return err
	}

	if change != nil && !d.Flags.Has(keymap.FlagEntersInsert) {
		e.noteChange(*change)
	}
	// <C-o> leaves InsertNormal to the command that follows it.
	if before != mode.InsertNormal && e.modes.Current().Kind == mode.InsertNormal {
		e.clampCaret()
		return nil
	}
	e.settle()
	return nil
}

// newContext builds the execution context handed to actions.
func (e *Engine) newContext(keys key.Sequence, count int, reg rune) *execctx.Context {
	ctx := execctx.New(e.buf).
		WithRegisters(e.regs).
		WithModes(e.modes).
		WithComposer(e.composer, e.motion).
		WithCaret(e.caret).
		WithCount(count).
		WithNotifier(e.notifier).
		WithEvaluator(e.eval)
	ctx.Anchor = e.anchor
	ctx.Register = reg
	ctx.Keys = keys.Clone()
	ctx.Repeating = e.repeater.IsReplaying()
	return ctx
}

// env returns the operator environment for register reg.
func (e *Engine) env(reg rune) vim.Env {
	return vim.Env{
		Buf:        e.buf,
		Registers:  e.regs,
		Register:   reg,
		Caret:      e.caret,
		ShiftWidth: e.cfg.ShiftWidth,
		ExpandTab:  e.cfg.ExpandTab,
	}
}

// noteChange stores c in the repeat slot unless a repeat is replaying.
func (e *Engine) noteChange(c macro.Change) {
	if e.repeater.IsReplaying() {
		return
	}
	e.repeater.NoteRepeatable(c)
}

// noteSearch copies the last search pattern into the / register.
func (e *Engine) noteSearch() {
	if pattern, _, ok := e.motion.LastSearch(); ok {
		e.regs.SetLastSearch(pattern)
		e.highlight = true
	}
}

// settle ends a command: a command run from Insert mode returns there,
// and the caret is clamped for the resulting mode.
func (e *Engine) settle() {
	if e.modes.Current().Kind == mode.InsertNormal {
		e.modes.Pop()
	}
	e.clampCaret()
}

// clampCaret keeps the caret on a position the current mode allows.
func (e *Engine) clampCaret() {
	n := e.buf.Len()
	e.caret = max(0, min(e.caret, n))
	e.anchor = max(0, min(e.anchor, n))
	md := e.modes.Current()
	if md.IsTyping() || md.Kind == mode.CommandLine || md.Kind == mode.InsertNormal {
		return
	}
	if snap, err := vim.Take(e.buf); err == nil {
		e.caret = snap.ClampNormal(e.caret)
		if md.HasSelection() {
			e.anchor = snap.ClampNormal(e.anchor)
		}
	}
}

// updateColumn makes the caret column the desired column.
func (e *Engine) updateColumn() {
	if snap, err := vim.Take(e.buf); err == nil {
		e.motion.UpdateColumn(snap, e.caret)
	}
}

// beginUndo opens an undo group when the buffer keeps history.
func (e *Engine) beginUndo(name string) {
	if u, ok := e.buf.(buffer.Undoer); ok {
		u.BeginGroup(name, e.caret)
		e.undoDepth++
	}
}

// endUndo closes the innermost undo group opened by beginUndo.
func (e *Engine) endUndo() {
	if e.undoDepth == 0 {
		return
	}
	if u, ok := e.buf.(buffer.Undoer); ok {
		u.EndGroup()
	}
	e.undoDepth--
}

// closeUndo closes every open undo group.
func (e *Engine) closeUndo() {
	for e.undoDepth > 0 {
		e.endUndo()
	}
}

// evaluate runs an expression with the configured evaluator.
func (e *Engine) evaluate(src string) (string, error) {
	return execctx.New(e.buf).WithEvaluator(e.eval).Evaluate(src)
}

// evalError wraps an expression register failure as *execctx.EvalError.
func (e *Engine) evalError(src string, err error) error {
	var ee *execctx.EvalError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, register.ErrNoEvaluator) {
		err = execctx.ErrNoEvaluator
	}
	return &execctx.EvalError{Source: src, Err: err}
}

// validRegister checks a register name typed after ".
func validRegister(r rune) error {
	if !register.IsValid(r) {
		return fmt.Errorf("%w: %q", register.ErrInvalidRegister, r)
	}
	return nil
}
