package vim

import (
	"fmt"
	"strings"

	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/register"
)

// Env is what Apply needs besides the operator and range.
type Env struct {
	Buf       buffer.Provider
	Registers *register.Store

	// Register is the explicitly selected register, or zero.
	Register rune

	// Caret is the caret before the command.
	Caret int

	// ShiftWidth is the indent unit of > and <.
	ShiftWidth int

	// ExpandTab indents with spaces instead of a tab.
	ExpandTab bool
}

// Outcome describes the result of applying an operator.
type Outcome struct {
	// Caret is the caret after the command.
	Caret int

	// Changed reports whether the buffer was modified.
	Changed bool

	// EntersInsert is set by change.
	EntersInsert bool

	// Block holds the rows a block change repeats its insert on.
	Block *Block
}

// replacer is implemented by providers that replace in one step.
type replacer interface {
	Replace(start, end int, text string) error
}

func replace(p buffer.Provider, start, end int, text string) error {
	if r, ok := p.(replacer); ok {
		return r.Replace(start, end, text)
	}
	if err := p.Delete(start, end); err != nil {
		return err
	}
	return p.Insert(start, text)
}

// Apply runs op over rr. Registers are written only after the buffer
// edit succeeded.
func (c *Composer) Apply(env Env, op *Operator, rr RangeResult) (Outcome, error) {
	if rr.IsEmpty() {
		if op.EntersInsert {
			return Outcome{Caret: rr.Start, EntersInsert: true}, nil
		}
		return Outcome{Caret: env.Caret}, nil
	}

	snap, err := Take(env.Buf)
	if err != nil {
		return Outcome{}, err
	}

	switch op.Kind {
	case OpDelete:
		return c.delete(env, snap, rr)
	case OpChange:
		return c.change(env, snap, rr)
	case OpYank:
		return c.yank(env, snap, rr)
	case OpShiftRight, OpShiftLeft:
		return c.shift(env, snap, rr, op.Kind == OpShiftRight)
	case OpLower, OpUpper, OpToggleCase:
		return c.transform(env, snap, rr, op)
	default:
		return Outcome{}, fmt.Errorf("unknown operator: %s", op.Kind)
	}
}

func record(env Env, p register.Payload, isDelete, isSmall bool) error {
	if env.Registers == nil {
		return nil
	}
	return env.Registers.Record(env.Register, p, isDelete, isSmall)
}

// deleteRows removes block rows bottom-up so earlier offsets stay valid.
func deleteRows(p buffer.Provider, rows []buffer.Range) error {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].IsEmpty() {
			continue
		}
		if err := p.Delete(rows[i].Start, rows[i].End); err != nil {
			return fmt.Errorf("delete %v: %w", rows[i], err)
		}
	}
	return nil
}

// blockCorner returns the top-left offset of b after an edit.
func blockCorner(p buffer.Provider, b Block, insert bool) (int, error) {
	snap, err := Take(p)
	if err != nil {
		return 0, err
	}
	return snap.OffsetAt(b.StartLine, b.StartCol, insert), nil
}

func (c *Composer) delete(env Env, snap *Snapshot, rr RangeResult) (Outcome, error) {
	payload := rr.Payload(snap)

	var caret int
	switch rr.Wise {
	case register.Blockwise:
		if err := deleteRows(env.Buf, rr.Block.Rows(snap, false)); err != nil {
			return Outcome{}, err
		}
		corner, err := blockCorner(env.Buf, rr.Block, false)
		if err != nil {
			return Outcome{}, err
		}
		caret = corner
	default:
		if err := env.Buf.Delete(rr.Start, rr.End); err != nil {
			return Outcome{}, fmt.Errorf("delete %v: %w", rr, err)
		}
		caret = rr.Start
		if rr.Wise == register.Linewise {
			after, err := Take(env.Buf)
			if err != nil {
				return Outcome{}, err
			}
			caret = after.FirstNonBlank(min(rr.StartLine, after.LineCount()-1))
		}
	}

	if err := record(env, payload, true, rr.IsSmall()); err != nil {
		return Outcome{}, err
	}
	return Outcome{Caret: caret, Changed: true}, nil
}

func (c *Composer) change(env Env, snap *Snapshot, rr RangeResult) (Outcome, error) {
	payload := rr.Payload(snap)
	out := Outcome{Changed: true, EntersInsert: true}

	switch rr.Wise {
	case register.Linewise:
		// The lines are replaced by one empty line.
		start, end := snap.LineStart(rr.StartLine), snap.LineEnd(rr.EndLine)
		if err := env.Buf.Delete(start, end); err != nil {
			return Outcome{}, fmt.Errorf("change %v: %w", rr, err)
		}
		out.Caret = start
	case register.Blockwise:
		if err := deleteRows(env.Buf, rr.Block.Rows(snap, true)); err != nil {
			return Outcome{}, err
		}
		corner, err := blockCorner(env.Buf, rr.Block, true)
		if err != nil {
			return Outcome{}, err
		}
		out.Caret = corner
		blk := rr.Block
		out.Block = &blk
	default:
		if err := env.Buf.Delete(rr.Start, rr.End); err != nil {
			return Outcome{}, fmt.Errorf("change %v: %w", rr, err)
		}
		out.Caret = rr.Start
	}

	if err := record(env, payload, true, rr.IsSmall()); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (c *Composer) yank(env Env, snap *Snapshot, rr RangeResult) (Outcome, error) {
	if err := record(env, rr.Payload(snap), false, false); err != nil {
		return Outcome{}, err
	}

	caret := env.Caret
	switch rr.Wise {
	case register.Linewise:
		if snap.Line(caret) > rr.StartLine {
			caret = snap.OffsetAt(rr.StartLine, snap.Column(caret), false)
		}
	case register.Blockwise:
		caret = snap.OffsetAt(rr.Block.StartLine, rr.Block.StartCol, false)
	default:
		caret = rr.Start
	}
	return Outcome{Caret: caret}, nil
}

func (c *Composer) indentUnit(env Env) string {
	sw := env.ShiftWidth
	if sw <= 0 {
		sw = 8
	}
	if env.ExpandTab {
		return strings.Repeat(" ", sw)
	}
	return "\t"
}

func (c *Composer) shift(env Env, snap *Snapshot, rr RangeResult, right bool) (Outcome, error) {
	unit := c.indentUnit(env)
	width := max(env.ShiftWidth, 1)
	changed := false

	for line := rr.EndLine; line >= rr.StartLine; line-- {
		ls, le := snap.LineStart(line), snap.LineEnd(line)
		if ls == le {
			continue
		}
		if right {
			if err := env.Buf.Insert(ls, unit); err != nil {
				return Outcome{}, fmt.Errorf("shift line %d: %w", line+1, err)
			}
			changed = true
			continue
		}

		remove := 0
		for i := ls; i < le && remove < width; i++ {
			r := snap.At(i)
			if r == '\t' {
				remove = i - ls + 1
				break
			}
			if r != ' ' {
				break
			}
			remove = i - ls + 1
		}
		if remove > 0 {
			if err := env.Buf.Delete(ls, ls+remove); err != nil {
				return Outcome{}, fmt.Errorf("shift line %d: %w", line+1, err)
			}
			changed = true
		}
	}

	after, err := Take(env.Buf)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Caret: after.FirstNonBlank(rr.StartLine), Changed: changed}, nil
}

func (c *Composer) transform(env Env, snap *Snapshot, rr RangeResult, op *Operator) (Outcome, error) {
	fn := op.transform()

	var ranges []buffer.Range
	caret := rr.Start
	switch rr.Wise {
	case register.Linewise:
		ranges = []buffer.Range{{Start: snap.LineStart(rr.StartLine), End: snap.LineEnd(rr.EndLine)}}
		caret = env.Caret
	case register.Blockwise:
		ranges = rr.Block.Rows(snap, op.SkipShortRows)
		caret = snap.OffsetAt(rr.Block.StartLine, rr.Block.StartCol, false)
	default:
		ranges = []buffer.Range{{Start: rr.Start, End: rr.End}}
	}

	changed := false
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		old := snap.Slice(r.Start, r.End)
		if updated := fn(old); updated != old {
			if err := replace(env.Buf, r.Start, r.End, updated); err != nil {
				return Outcome{}, fmt.Errorf("%s %v: %w", op.Name(), r, err)
			}
			changed = true
		}
	}
	return Outcome{Caret: caret, Changed: changed}, nil
}
