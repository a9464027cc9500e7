package buffer

import (
	"errors"
	"fmt"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrLineOutOfRange   = errors.New("line out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrGuarded          = errors.New("range is read-only")
)

// Provider is the buffer/caret collaborator of the engine.
// All offsets count runes.
type Provider interface {
	// Len returns the number of runes in the buffer.
	Len() int

	// LineCount returns the number of lines. An empty buffer has one line.
	LineCount() int

	// LineStart returns the offset of the first rune of line.
	LineStart(line int) (int, error)

	// LineEnd returns the offset of the newline ending line, or Len for
	// the last line.
	LineEnd(line int) (int, error)

	// LineOf returns the line containing offset. Len is a valid offset.
	LineOf(offset int) (int, error)

	// Text returns the text in [start, end).
	Text(start, end int) (string, error)

	// RuneAt returns the rune at offset.
	RuneAt(offset int) (rune, error)

	// Insert inserts text at offset.
	Insert(offset int, text string) error

	// Delete removes [start, end).
	Delete(start, end int) error
}

// Guarded is implemented by providers with read-only regions.
type Guarded interface {
	// IsGuarded reports whether editing [start, end) touches a read-only
	// region.
	IsGuarded(start, end int) bool
}

// Undoer is implemented by providers with undo history.
type Undoer interface {
	// BeginGroup starts an undo unit; calls nest.
	BeginGroup(name string, caret int)

	// EndGroup closes the innermost BeginGroup.
	EndGroup()

	// Undo reverts the last unit and returns the caret to restore.
	Undo() (int, error)

	// Redo reapplies the last reverted unit and returns the caret.
	Redo() (int, error)
}

// Range is a half-open range of offsets: [Start, End).
type Range struct {
	Start int
	End   int
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Overlaps reports whether an edit of other touches r. An empty other
// touches r only strictly inside it.
func (r Range) Overlaps(other Range) bool {
	if other.IsEmpty() {
		return other.Start > r.Start && other.Start < r.End
	}
	return other.Start < r.End && r.Start < other.End
}

// LineText returns the text of line without its newline.
func LineText(p Provider, line int) (string, error) {
	start, err := p.LineStart(line)
	if err != nil {
		return "", err
	}
	end, err := p.LineEnd(line)
	if err != nil {
		return "", err
	}
	return p.Text(start, end)
}

// Column returns the column of offset within its line.
func Column(p Provider, offset int) (int, error) {
	line, err := p.LineOf(offset)
	if err != nil {
		return 0, err
	}
	start, err := p.LineStart(line)
	if err != nil {
		return 0, err
	}
	return offset - start, nil
}
