package input

import (
	"fmt"
	"strings"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// visualArea is a selection remembered for gv.
type visualArea struct {
	anchor, caret int
	sel           mode.SelectionKind
	toEOL         bool
}

func wiseOf(sel mode.SelectionKind) register.Wise {
	switch sel {
	case mode.SelectLine:
		return register.Linewise
	case mode.SelectBlock:
		return register.Blockwise
	default:
		return register.Charwise
	}
}

func selOf(w register.Wise) mode.SelectionKind {
	switch w {
	case register.Linewise:
		return mode.SelectLine
	case register.Blockwise:
		return mode.SelectBlock
	default:
		return mode.SelectChar
	}
}

// enterVisual starts a selection of kind sel at the caret. In a selection
// mode of the same kind it ends the selection; of another kind it
// changes the kind.
func (e *Engine) enterVisual(sel mode.SelectionKind, selectMode bool) {
	md := e.modes.Current()
	if md.HasSelection() {
		if md.Sel == sel {
			e.leaveVisual()
			return
		}
		e.modes.Switch(mode.Mode{Kind: md.Kind, Sel: sel})
		return
	}

	e.anchor = e.caret
	e.toEOL = false
	kind := mode.Visual
	if selectMode {
		kind = mode.Select
	}
	if md.Kind == mode.InsertNormal {
		kind = mode.InsertVisual
		if selectMode {
			kind = mode.InsertSelect
		}
		e.modes.Switch(mode.Mode{Kind: kind, Sel: sel})
		return
	}
	e.modes.Push(mode.Mode{Kind: kind, Sel: sel})
}

// leaveVisual ends the selection and remembers it for gv.
func (e *Engine) leaveVisual() {
	md := e.modes.Current()
	if !md.HasSelection() {
		return
	}
	e.lastVisual = &visualArea{anchor: e.anchor, caret: e.caret, sel: md.Sel, toEOL: e.toEOL}
	e.modes.Pop()
	e.toEOL = false
}

// toggleSelect switches between Visual and Select mode (<C-g>).
func (e *Engine) toggleSelect(*execctx.Context) error {
	md := e.modes.Current()
	switch md.Kind {
	case mode.Visual:
		md.Kind = mode.Select
	case mode.Select:
		md.Kind = mode.Visual
	case mode.InsertVisual:
		md.Kind = mode.InsertSelect
	case mode.InsertSelect:
		md.Kind = mode.InsertVisual
	default:
		return nil
	}
	e.modes.Switch(md)
	return nil
}

// reselect restores the last selection (gv).
func (e *Engine) reselect(*execctx.Context) error {
	area := e.lastVisual
	if area == nil {
		return ErrNoPreviousSelection
	}
	if e.modes.Current().HasSelection() {
		e.leaveVisual()
	}
	n := e.buf.Len()
	e.anchor = min(area.anchor, n)
	e.caret = min(area.caret, n)
	e.toEOL = area.toEOL
	e.modes.Push(mode.VisualMode(area.sel))
	return nil
}

// selection returns the range of the current selection.
func (e *Engine) selection() (vim.RangeResult, *vim.Snapshot, error) {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return vim.RangeResult{}, nil, err
	}
	md := e.modes.Current()
	return e.composer.Visual(snap, e.anchor, e.caret, wiseOf(md.Sel), e.toEOL), snap, nil
}

// extent measures the current selection for repeat.
func (e *Engine) extent(snap *vim.Snapshot) macro.Extent {
	md := e.modes.Current()
	from, to := min(e.anchor, e.caret), max(e.anchor, e.caret)
	lines := snap.Line(to) - snap.Line(from) + 1
	switch md.Sel {
	case mode.SelectLine:
		return macro.Extent{Wise: register.Linewise, Lines: lines}
	case mode.SelectBlock:
		ca, cc := snap.Column(e.anchor), snap.Column(e.caret)
		return macro.Extent{Wise: register.Blockwise, Lines: lines, Cols: max(ca, cc) - min(ca, cc) + 1}
	default:
		cols := snap.Column(to) + 1
		if lines == 1 {
			cols = to - from + 1
		}
		return macro.Extent{Wise: register.Charwise, Lines: lines, Cols: cols}
	}
}

// selectExtent selects an area of size x at the caret, for repeating a
// Visual change.
func (e *Engine) selectExtent(x macro.Extent) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	line := snap.Line(e.caret)
	last := min(line+max(x.Lines, 1)-1, snap.LineCount()-1)
	e.anchor = e.caret
	switch x.Wise {
	case register.Linewise:
		e.caret = snap.OffsetAt(last, snap.Column(e.caret), false)
	case register.Blockwise:
		e.caret = snap.OffsetAt(last, snap.Column(e.caret)+x.Cols-1, false)
	default:
		if x.Lines <= 1 {
			e.caret = min(e.caret+x.Cols-1, snap.LastChar(line))
		} else {
			e.caret = snap.OffsetAt(last, x.Cols-1, false)
		}
	}
	e.toEOL = false
	e.modes.Push(mode.VisualMode(selOf(x.Wise)))
	return nil
}

// selectObject sets the selection to a text object.
func (e *Engine) selectObject(obj *vim.TextObject, count int) error {
	md := e.modes.Current()
	if !md.HasSelection() {
		e.settle()
		return fmt.Errorf("%w: %s", ErrOperatorMismatch, obj.Name)
	}
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	span, err := obj.Select(&vim.ObjectContext{Snap: snap, Caret: e.caret, Count: count})
	if err != nil {
		return err
	}

	e.anchor = span.Start
	if span.Wise == register.Linewise {
		e.caret = span.End
		if md.Sel == mode.SelectChar {
			e.modes.Switch(mode.Mode{Kind: md.Kind, Sel: mode.SelectLine})
		}
	} else {
		e.caret = max(span.Start, span.End-1)
	}
	e.updateColumn()
	return nil
}

// visualOperator applies op to the selection and leaves Visual mode.
func (e *Engine) visualOperator(op *vim.Operator, keys key.Sequence) error {
	p := e.modes.Pending()
	e.modes.ResetPending()

	rr, snap, err := e.selection()
	if err != nil {
		return err
	}
	if op.Linewise && rr.Wise != register.Linewise {
		rr = vim.LineRange(snap, rr.StartLine, rr.EndLine)
	}
	if op.Kind == vim.OpDelete {
		g, _ := e.buf.(buffer.Guarded)
		if rr, err = vim.Unguard(rr, g); err != nil {
			e.leaveVisual()
			e.settle()
			return err
		}
	}

	x := e.extent(snap)
	change := macro.Change{Register: p.Register, OpKeys: keys, Visual: &x}
	e.leaveVisual()
	e.caret = rr.Start
	if rr.Wise == register.Linewise {
		e.caret = snap.LineStart(rr.StartLine)
	}
	return e.applyOperator(op, rr, p.Register, change)
}

// visualLineOperator applies op to the selected lines, or to the block
// extended to the line ends in block mode.
func (e *Engine) visualLineOperator(op *vim.Operator) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		md := e.modes.Current()
		if md.Sel == mode.SelectBlock {
			e.toEOL = true
		} else {
			e.modes.Switch(mode.Mode{Kind: md.Kind, Sel: mode.SelectLine})
		}
		return e.visualOperator(op, ctx.Keys)
	}
}

// visualSwap moves the caret to the other end of the selection. In block
// mode, horizontal swaps only the columns.
func (e *Engine) visualSwap(horizontal bool) keymap.ActionFunc {
	return func(*execctx.Context) error {
		if !horizontal || e.modes.Current().Sel != mode.SelectBlock {
			e.anchor, e.caret = e.caret, e.anchor
			e.updateColumn()
			return nil
		}
		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		la, lc := snap.Line(e.anchor), snap.Line(e.caret)
		ca, cc := snap.Column(e.anchor), snap.Column(e.caret)
		e.anchor = snap.OffsetAt(la, cc, false)
		e.caret = snap.OffsetAt(lc, ca, false)
		e.updateColumn()
		return nil
	}
}

// visualReplace replaces every selected rune with the argument (r{char}).
func (e *Engine) visualReplace(ctx *execctx.Context) error {
	rr, snap, err := e.selection()
	if err != nil {
		return err
	}
	e.leaveVisual()

	with := string(ctx.Char)
	var rows []buffer.Range
	switch rr.Wise {
	case register.Blockwise:
		rows = rr.Block.Rows(snap, true)
	case register.Linewise:
		rows = []buffer.Range{{Start: snap.LineStart(rr.StartLine), End: snap.LineEnd(rr.EndLine)}}
	default:
		rows = []buffer.Range{{Start: rr.Start, End: rr.End}}
	}
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		text := strings.Map(func(r rune) rune {
			if r == '\n' {
				return r
			}
			return ctx.Char
		}, snap.Slice(row.Start, row.End))
		if with == "\n" {
			text = "\n"
		}
		if err := e.replaceText(row.Start, row.End, text); err != nil {
			return err
		}
	}
	e.caret = rr.Start
	if rr.Wise == register.Linewise {
		e.caret = snap.LineStart(rr.StartLine)
	}
	e.clampCaret()
	return nil
}

// visualJoin joins the selected lines, at least two.
func (e *Engine) visualJoin(spaces bool) keymap.ActionFunc {
	return func(*execctx.Context) error {
		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		first, last := snap.Line(min(e.anchor, e.caret)), snap.Line(max(e.anchor, e.caret))
		e.leaveVisual()
		e.caret = snap.LineStart(first)
		return e.joinLines(max(last-first+1, 2), spaces)
	}
}

// visualPut replaces the selection with a register. p writes the
// replaced text to the unnamed register; P leaves it alone.
func (e *Engine) visualPut(keep bool) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		name := ctx.Register
		if name == 0 {
			name = e.regs.DefaultRegister()
		}
		pl, ok := e.regs.Read(name)
		if !ok || pl.IsEmpty() {
			e.leaveVisual()
			return fmt.Errorf("%w: %q", macro.ErrEmptyRegister, name)
		}

		rr, snap, err := e.selection()
		if err != nil {
			return err
		}
		e.leaveVisual()
		e.markPut()
		replaced := rr.Payload(snap)

		var start, end int
		text := pl.Text
		switch rr.Wise {
		case register.Linewise:
			start, end = snap.LineStart(rr.StartLine), snap.LineEnd(rr.EndLine)
			text = strings.TrimSuffix(text, "\n")
		case register.Blockwise:
			if err := e.deleteBlock(snap, rr.Block); err != nil {
				return err
			}
			snap, err = vim.Take(e.buf)
			if err != nil {
				return err
			}
			start = snap.OffsetAt(rr.Block.StartLine, rr.Block.StartCol, true)
			end = start
		default:
			start, end = rr.Start, rr.End
			if pl.Wise == register.Linewise {
				text = "\n" + text
			}
		}
		if err := e.replaceText(start, end, text); err != nil {
			return err
		}

		if !keep {
			if err := e.regs.Record(0, replaced, true, rr.IsSmall()); err != nil {
				return err
			}
		}
		after, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		switch {
		case rr.Wise == register.Linewise || pl.Wise == register.Linewise:
			line := after.Line(start)
			if rr.Wise == register.Charwise {
				line++
			}
			ctx.Caret = after.FirstNonBlank(min(line, after.LineCount()-1))
		default:
			ctx.Caret = max(start, start+len([]rune(text))-1)
		}
		return nil
	}
}

func (e *Engine) deleteBlock(snap *vim.Snapshot, b vim.Block) error {
	rows := b.Rows(snap, false)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].IsEmpty() {
			continue
		}
		if err := e.buf.Delete(rows[i].Start, rows[i].End); err != nil {
			return err
		}
	}
	return nil
}

// visualInsert starts Insert mode at the start (I) or after the end (A)
// of the selection. In block mode the text is repeated on every row.
func (e *Engine) visualInsert(appendMode bool) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		rr, snap, err := e.selection()
		if err != nil {
			return err
		}
		md := e.modes.Current()
		e.leaveVisual()

		if md.Sel != mode.SelectBlock {
			if appendMode {
				e.caret = rr.End
				if rr.Wise == register.Linewise {
					e.caret = snap.LineEnd(rr.EndLine)
				}
			} else {
				e.caret = rr.Start
				if rr.Wise == register.Linewise {
					e.caret = snap.LineStart(rr.StartLine)
				}
			}
			e.startInsert(insertOpts{})
			return nil
		}

		b := rr.Block
		o := insertOpts{block: &b, blockCol: b.StartCol}
		if appendMode {
			o.blockCol, o.blockAppend, o.blockEOL = b.EndCol, true, b.ToEOL
			ls, le := snap.LineStart(b.StartLine), snap.LineEnd(b.StartLine)
			pos := ls + b.EndCol
			if b.ToEOL {
				pos = le
			}
			if pos > le {
				if err := e.buf.Insert(le, strings.Repeat(" ", pos-le)); err != nil {
					return err
				}
			}
			e.caret = pos
		} else {
			e.caret = snap.OffsetAt(b.StartLine, b.StartCol, true)
		}
		e.startInsert(o)
		return nil
	}
}

// selectReplace deletes the selection and types keys in its place.
func (e *Engine) selectReplace(keys key.Sequence) error {
	if err := e.selectDelete(nil); err != nil {
		return err
	}
	return e.typeKeys(keys)
}

// selectDelete deletes the selection into the black hole register and
// starts Insert mode in its place.
func (e *Engine) selectDelete(*execctx.Context) error {
	e.modes.ResetPending()
	rr, _, err := e.selection()
	if err != nil {
		return err
	}
	e.leaveVisual()
	e.caret = rr.Start

	e.beginUndo("select")
	out, err := e.composer.Apply(e.env(register.BlackHole), vim.Change, rr)
	if err != nil {
		e.endUndo()
		return err
	}
	e.caret = out.Caret
	e.startInsert(insertOpts{undoOpen: true})
	return nil
}
