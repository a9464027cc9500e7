package vim

import (
	"unicode"

	"github.com/dshills/modalkit/internal/engine/buffer"
)

// Snapshot is an immutable rune view of a buffer with a line index.
// Motions and text objects compute over a snapshot so they never see a
// half-applied edit.
type Snapshot struct {
	text   []rune
	starts []int
}

// Take captures the full content of p.
func Take(p buffer.Provider) (*Snapshot, error) {
	s, err := p.Text(0, p.Len())
	if err != nil {
		return nil, err
	}
	return NewSnapshot(s), nil
}

// NewSnapshot indexes s.
func NewSnapshot(s string) *Snapshot {
	text := []rune(s)
	starts := []int{0}
	for i, r := range text {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Snapshot{text: text, starts: starts}
}

// Len returns the number of runes.
func (s *Snapshot) Len() int { return len(s.text) }

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() int { return len(s.starts) }

// At returns the rune at off, or 0 outside the text.
func (s *Snapshot) At(off int) rune {
	if off < 0 || off >= len(s.text) {
		return 0
	}
	return s.text[off]
}

// Slice returns the text in [start, end), clamped to the snapshot.
func (s *Snapshot) Slice(start, end int) string {
	start = clamp(start, 0, len(s.text))
	end = clamp(end, start, len(s.text))
	return string(s.text[start:end])
}

// Line returns the line containing off.
func (s *Snapshot) Line(off int) int {
	lo, hi := 0, len(s.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.starts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// LineStart returns the first offset of line, clamped to existing lines.
func (s *Snapshot) LineStart(line int) int {
	return s.starts[clamp(line, 0, len(s.starts)-1)]
}

// LineEnd returns the offset of the newline ending line, or Len for the
// last line.
func (s *Snapshot) LineEnd(line int) int {
	line = clamp(line, 0, len(s.starts)-1)
	if line == len(s.starts)-1 {
		return len(s.text)
	}
	return s.starts[line+1] - 1
}

// Column returns the column of off within its line.
func (s *Snapshot) Column(off int) int {
	return off - s.LineStart(s.Line(off))
}

// LineText returns the text of line without its newline.
func (s *Snapshot) LineText(line int) string {
	return string(s.text[s.LineStart(line):s.LineEnd(line)])
}

// IsBlankLine reports whether line holds only whitespace.
func (s *Snapshot) IsBlankLine(line int) bool {
	for i := s.LineStart(line); i < s.LineEnd(line); i++ {
		if !isBlank(s.text[i]) {
			return false
		}
	}
	return true
}

// FirstNonBlank returns the offset of the first non-blank rune of line,
// or its last rune when the line is blank.
func (s *Snapshot) FirstNonBlank(line int) int {
	start, end := s.LineStart(line), s.LineEnd(line)
	for i := start; i < end; i++ {
		if !isBlank(s.text[i]) {
			return i
		}
	}
	return s.ClampNormal(end)
}

// LastChar returns the offset of the last rune of line before its
// newline, or the line start for an empty line.
func (s *Snapshot) LastChar(line int) int {
	start, end := s.LineStart(line), s.LineEnd(line)
	if end > start {
		return end - 1
	}
	return start
}

// ClampNormal moves off onto a rune the Normal mode caret may rest on:
// never past the last rune of a line and never on a newline unless the
// line is empty.
func (s *Snapshot) ClampNormal(off int) int {
	off = clamp(off, 0, len(s.text))
	line := s.Line(off)
	if last := s.LastChar(line); off > last {
		return last
	}
	return off
}

// OffsetAt returns the offset at col on line, clamped to the last rune,
// or to the line end when insert is set.
func (s *Snapshot) OffsetAt(line, col int, insert bool) int {
	line = clamp(line, 0, len(s.starts)-1)
	start := s.LineStart(line)
	last := s.LineEnd(line)
	if !insert {
		last = s.LastChar(line)
	}
	if col < 0 {
		col = 0
	}
	if start+col > last {
		return last
	}
	return start + col
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// charClass groups runes for word motions: 0 blank or newline,
// 1 punctuation (or any non-blank for WORDs), 2 keyword characters.
func charClass(r rune, big bool) int {
	switch {
	case r == '\n' || unicode.IsSpace(r):
		return 0
	case big:
		return 1
	case isWordRune(r):
		return 2
	default:
		return 1
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
