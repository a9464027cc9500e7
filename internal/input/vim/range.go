package vim

import (
	"fmt"
	"strings"

	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/register"
)

// ShiftPolicy says which newline a line-wise delete removes along with
// the lines.
type ShiftPolicy uint8

const (
	// AttachNewlineToStart removes the newline after the last line, so
	// the following line moves up to the start of the range.
	AttachNewlineToStart ShiftPolicy = iota

	// AttachNewlineToEnd removes the newline before the first line. Used
	// when the range reaches the last line of the buffer.
	AttachNewlineToEnd

	// KeepNoNewline removes no newline: the range covers the whole
	// buffer, or a guard keeps the newlines in place.
	KeepNoNewline
)

// String returns the policy name.
func (p ShiftPolicy) String() string {
	switch p {
	case AttachNewlineToStart:
		return "attach-newline-to-start"
	case AttachNewlineToEnd:
		return "attach-newline-to-end"
	case KeepNoNewline:
		return "keep-no-newline"
	default:
		return "unknown"
	}
}

// Block is the rectangle of a block-wise range. Columns count runes;
// EndCol is exclusive.
type Block struct {
	StartLine, EndLine int
	StartCol, EndCol   int

	// ToEOL extends every row to its line end ($ in Visual block mode).
	ToEOL bool
}

// Rows returns the edit range of each row, top to bottom. A row shorter
// than StartCol yields an empty range at its end, or no range at all
// when skipShort is set.
func (b Block) Rows(s *Snapshot, skipShort bool) []buffer.Range {
	rows := make([]buffer.Range, 0, b.EndLine-b.StartLine+1)
	for line := b.StartLine; line <= b.EndLine; line++ {
		ls, le := s.LineStart(line), s.LineEnd(line)
		start := ls + b.StartCol
		if start >= le {
			if skipShort {
				continue
			}
			rows = append(rows, buffer.Range{Start: le, End: le})
			continue
		}
		end := le
		if !b.ToEOL {
			end = min(ls+b.EndCol, le)
		}
		rows = append(rows, buffer.Range{Start: start, End: end})
	}
	return rows
}

// RangeResult is the region an operator acts on.
type RangeResult struct {
	// Start and End bound the edit in runes. For line-wise ranges they
	// already include the newline chosen by Policy.
	Start, End int

	Wise register.Wise

	// Policy is set for line-wise ranges.
	Policy ShiftPolicy

	// StartLine and EndLine are the lines covered.
	StartLine, EndLine int

	// Block is set for block-wise ranges.
	Block Block

	// Numbered sends deletes to the numbered registers even when they
	// are small.
	Numbered bool
}

// String returns a debug representation.
func (r RangeResult) String() string {
	return fmt.Sprintf("%s[%d,%d)", r.Wise, r.Start, r.End)
}

// IsEmpty reports whether the range selects nothing. Empty char-wise
// ranges make the command a no-op.
func (r RangeResult) IsEmpty() bool {
	return r.Wise == register.Charwise && r.Start == r.End
}

// IsSmall reports whether the range stays within one line.
func (r RangeResult) IsSmall() bool {
	return r.Wise == register.Charwise && r.StartLine == r.EndLine && !r.Numbered
}

// Payload returns the register content of the range.
func (r RangeResult) Payload(s *Snapshot) register.Payload {
	switch r.Wise {
	case register.Linewise:
		return register.Lines(s.Slice(s.LineStart(r.StartLine), s.LineEnd(r.EndLine)))
	case register.Blockwise:
		rows := r.Block.Rows(s, false)
		parts := make([]string, len(rows))
		for i, row := range rows {
			parts[i] = s.Slice(row.Start, row.End)
		}
		return register.Payload{Text: strings.Join(parts, "\n"), Wise: register.Blockwise}
	default:
		return register.Text(s.Slice(r.Start, r.End))
	}
}

// charRange builds a char-wise range.
func charRange(s *Snapshot, start, end int) RangeResult {
	return RangeResult{
		Start: start, End: end,
		Wise:      register.Charwise,
		StartLine: s.Line(start),
		EndLine:   s.Line(end),
	}
}

// LineRange builds the line-wise range of lines startLine..endLine with
// the default shift policy.
func LineRange(s *Snapshot, startLine, endLine int) RangeResult {
	if startLine > endLine {
		startLine, endLine = endLine, startLine
	}
	last := s.LineCount() - 1
	endLine = min(endLine, last)

	r := RangeResult{Wise: register.Linewise, StartLine: startLine, EndLine: endLine}
	start := s.LineStart(startLine)
	switch {
	case startLine == 0 && endLine == last:
		r.Start, r.End, r.Policy = 0, s.Len(), KeepNoNewline
	case endLine == last:
		r.Start, r.End, r.Policy = start-1, s.Len(), AttachNewlineToEnd
	default:
		r.Start, r.End, r.Policy = start, s.LineStart(endLine+1), AttachNewlineToStart
	}
	return r
}

// Unguard adjusts a line-wise delete range whose newline is guarded:
//
//	attach-newline-to-start  -> shift one left and attach to end, then keep
//	                            the trailing newline
//	attach-newline-to-end    -> keep the leading newline
//	keep-no-newline          -> no fallback
//
// It returns buffer.ErrGuarded when every candidate touches a guard.
func Unguard(r RangeResult, g buffer.Guarded) (RangeResult, error) {
	if g == nil || r.Wise != register.Linewise || !g.IsGuarded(r.Start, r.End) {
		return r, nil
	}

	type candidate struct {
		start, end int
		policy     ShiftPolicy
	}
	var candidates []candidate
	switch r.Policy {
	case AttachNewlineToStart:
		if r.Start > 0 {
			candidates = append(candidates, candidate{r.Start - 1, r.End - 1, AttachNewlineToEnd})
		}
		candidates = append(candidates, candidate{r.Start, r.End - 1, KeepNoNewline})
	case AttachNewlineToEnd:
		candidates = append(candidates, candidate{r.Start + 1, r.End, KeepNoNewline})
	}

	for _, c := range candidates {
		if !g.IsGuarded(c.start, c.end) {
			r.Start, r.End, r.Policy = c.start, c.end, c.policy
			return r, nil
		}
	}
	return r, fmt.Errorf("%w: lines %d-%d", buffer.ErrGuarded, r.StartLine+1, r.EndLine+1)
}

// BlockRange builds a block-wise range between two corners.
func BlockRange(s *Snapshot, a, b int, toEOL bool) RangeResult {
	la, lb := s.Line(a), s.Line(b)
	ca, cb := s.Column(a), s.Column(b)
	blk := Block{
		StartLine: min(la, lb), EndLine: max(la, lb),
		StartCol: min(ca, cb), EndCol: max(ca, cb) + 1,
		ToEOL: toEOL,
	}
	return RangeResult{
		Start:     s.LineStart(blk.StartLine) + blk.StartCol,
		End:       min(s.LineStart(blk.EndLine)+blk.EndCol, s.LineEnd(blk.EndLine)),
		Wise:      register.Blockwise,
		StartLine: blk.StartLine,
		EndLine:   blk.EndLine,
		Block:     blk,
	}
}
