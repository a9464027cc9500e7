package vim

import (
	"fmt"

	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/register"
)

// Selector is what follows an operator: a motion, a text object, or the
// operator's line keys.
type Selector struct {
	Motion *Motion
	Object *TextObject

	// Line selects count whole lines from the caret, as in dd.
	Line bool

	// Count is the count typed after the operator; zero means none.
	Count int

	// Char and Str are the motion arguments.
	Char rune
	Str  string
}

// Composer turns an operator and a selector into a range and applies
// operators to ranges.
type Composer struct {
	maxCount int
}

// NewComposer creates a composer whose counts saturate at maxCount.
func NewComposer(maxCount int) *Composer {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &Composer{maxCount: maxCount}
}

// SetMaxCount changes the count saturation point.
func (c *Composer) SetMaxCount(n int) {
	if n <= 0 {
		n = DefaultMaxCount
	}
	c.maxCount = n
}

// Move evaluates a motion outside of an operator and returns the new
// caret offset and the motion kind.
func (c *Composer) Move(snap *Snapshot, st *State, m *Motion, caret int, sel Selector) (int, MotionKind, error) {
	mc := &MotionContext{
		Snap:     snap,
		State:    st,
		Caret:    caret,
		Count:    Effective(sel.Count),
		HasCount: sel.Count > 0,
		Char:     sel.Char,
		Str:      sel.Str,
	}
	target, err := m.Eval(mc)
	if err != nil {
		return caret, mc.Kind, err
	}
	return target, mc.Kind, nil
}

// Compose computes the range op acts on. opCount is the count typed
// before the operator; it multiplies the selector count.
func (c *Composer) Compose(p buffer.Provider, st *State, op *Operator, sel Selector, caret, opCount int) (RangeResult, error) {
	if caret < 0 || caret > p.Len() {
		return RangeResult{}, fmt.Errorf("%w: caret %d (len %d)", buffer.ErrOffsetOutOfRange, caret, p.Len())
	}
	snap, err := Take(p)
	if err != nil {
		return RangeResult{}, err
	}
	count := CombineCounts(opCount, sel.Count, c.maxCount)

	var rr RangeResult
	switch {
	case sel.Line:
		line := snap.Line(caret)
		rr = LineRange(snap, line, line+count-1)

	case sel.Object != nil:
		span, err := sel.Object.Select(&ObjectContext{Snap: snap, Caret: caret, Count: count})
		if err != nil {
			return RangeResult{}, err
		}
		if span.Wise == register.Linewise {
			rr = LineRange(snap, snap.Line(span.Start), snap.Line(span.End))
		} else {
			rr = charRange(snap, span.Start, span.End)
		}

	case sel.Motion != nil:
		rr, err = c.composeMotion(snap, st, op, sel, caret, count, HasCount(opCount, sel.Count))
		if err != nil {
			return RangeResult{}, err
		}

	default:
		return RangeResult{}, ErrNoSelection
	}

	if op.Linewise && rr.Wise == register.Charwise {
		rr = LineRange(snap, rr.StartLine, rr.EndLine)
	}
	if op.Kind == OpDelete {
		g, _ := p.(buffer.Guarded)
		return Unguard(rr, g)
	}
	return rr, nil
}

func (c *Composer) composeMotion(snap *Snapshot, st *State, op *Operator, sel Selector, caret, count int, hasCount bool) (RangeResult, error) {
	m := sel.Motion
	if op.Kind == OpChange && caret < snap.Len() && charClass(snap.At(caret), false) != 0 {
		switch m {
		case MotionWordForward:
			m = motionChangeWord
		case MotionWORDForward:
			m = motionChangeWORD
		}
	}

	mc := &MotionContext{
		Snap:     snap,
		State:    st,
		Caret:    caret,
		Count:    count,
		HasCount: hasCount,
		Char:     sel.Char,
		Str:      sel.Str,
		Operator: true,
	}
	target, err := m.Eval(mc)
	if err != nil {
		return RangeResult{}, err
	}

	from, to := min(caret, target), max(caret, target)
	switch mc.Kind {
	case Linewise:
		return LineRange(snap, snap.Line(from), snap.Line(to)), nil

	case Inclusive:
		to = min(to+1, max(snap.LineEnd(snap.Line(to)), to))

	case Exclusive:
		// An exclusive motion ending in column 0 stops at the end of the
		// previous line, or covers whole lines when it started at or
		// before the first non-blank.
		if to > from && snap.Column(to) == 0 && snap.Line(to) > snap.Line(from) {
			fromLine := snap.Line(from)
			if from <= snap.FirstNonBlank(fromLine) {
				return LineRange(snap, fromLine, snap.Line(to)-1), nil
			}
			to = snap.LineEnd(snap.Line(to) - 1)
		}
	}

	rr := charRange(snap, from, to)
	rr.Numbered = m.Numbered
	return rr, nil
}

// Visual returns the range of a Visual selection between anchor and
// caret. toEOL extends block selections to every line end.
func (c *Composer) Visual(snap *Snapshot, anchor, caret int, wise register.Wise, toEOL bool) RangeResult {
	switch wise {
	case register.Linewise:
		return LineRange(snap, snap.Line(anchor), snap.Line(caret))
	case register.Blockwise:
		return BlockRange(snap, anchor, caret, toEOL)
	default:
		from, to := min(anchor, caret), max(anchor, caret)
		return charRange(snap, from, min(to+1, snap.Len()))
	}
}
