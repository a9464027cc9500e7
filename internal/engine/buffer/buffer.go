package buffer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/modalkit/internal/engine/history"
)

// Buffer is an in-memory Provider with read-only guards and undo history.
// All methods are thread-safe.
type Buffer struct {
	mu sync.RWMutex

	text       []rune
	lineStarts []int
	guards     []Range
	revision   uint64

	history  *history.History
	maxUndo  int
	path     string
	modified bool
}

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithPath sets the file path reported by Path.
func WithPath(path string) Option {
	return func(b *Buffer) {
		b.path = path
	}
}

// WithMaxUndo sets the maximum number of undo entries.
func WithMaxUndo(n int) Option {
	return func(b *Buffer) {
		b.maxUndo = n
	}
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{lineStarts: []int{0}}
	for _, opt := range opts {
		opt(b)
	}
	b.history = history.NewHistory(b.maxUndo)
	return b
}

// NewBufferFromString creates a buffer with initial content.
// Line endings are normalized to \n.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = []rune(normalizeLineEndings(s))
	b.reindex()
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// reindex rebuilds the line start table (must hold lock).
func (b *Buffer) reindex() {
	b.lineStarts = b.lineStarts[:0]
	b.lineStarts = append(b.lineStarts, 0)
	for i, r := range b.text {
		if r == '\n' {
			b.lineStarts = append(b.lineStarts, i+1)
		}
	}
}

// String returns the full buffer content.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// Path returns the file path of the buffer, if any.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Modified reports whether the buffer changed since it was created.
func (b *Buffer) Modified() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modified
}

// Revision returns a counter incremented by every edit.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lineStarts)
}

// LineStart returns the offset of the first rune of line.
func (b *Buffer) LineStart(line int) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lineStarts) {
		return 0, fmt.Errorf("%w: %d (lines %d)", ErrLineOutOfRange, line, len(b.lineStarts))
	}
	return b.lineStarts[line], nil
}

// LineEnd returns the offset of the newline ending line, or Len for the
// last line.
func (b *Buffer) LineEnd(line int) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lineStarts) {
		return 0, fmt.Errorf("%w: %d (lines %d)", ErrLineOutOfRange, line, len(b.lineStarts))
	}
	if line == len(b.lineStarts)-1 {
		return len(b.text), nil
	}
	return b.lineStarts[line+1] - 1, nil
}

// LineOf returns the line containing offset.
func (b *Buffer) LineOf(offset int) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkOffset(offset); err != nil {
		return 0, err
	}

	lo, hi := 0, len(b.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// Text returns the text in [start, end).
func (b *Buffer) Text(start, end int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkRange(start, end); err != nil {
		return "", err
	}
	return string(b.text[start:end]), nil
}

// RuneAt returns the rune at offset.
func (b *Buffer) RuneAt(offset int) (rune, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || offset >= len(b.text) {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrOffsetOutOfRange, offset, len(b.text))
	}
	return b.text[offset], nil
}

func (b *Buffer) checkOffset(offset int) error {
	if offset < 0 || offset > len(b.text) {
		return fmt.Errorf("%w: %d (len %d)", ErrOffsetOutOfRange, offset, len(b.text))
	}
	return nil
}

func (b *Buffer) checkRange(start, end int) error {
	if start > end {
		return fmt.Errorf("%w: %v", ErrRangeInvalid, Range{Start: start, End: end})
	}
	if err := b.checkOffset(start); err != nil {
		return err
	}
	return b.checkOffset(end)
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int, text string) error {
	return b.Replace(offset, offset, text)
}

// Delete removes [start, end).
func (b *Buffer) Delete(start, end int) error {
	return b.Replace(start, end, "")
}

// Replace replaces [start, end) with text and records it for undo.
func (b *Buffer) Replace(start, end int, text string) error {
	b.mu.Lock()
	if err := b.checkRange(start, end); err != nil {
		b.mu.Unlock()
		return err
	}
	if b.guardedLocked(Range{Start: start, End: end}) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrGuarded, Range{Start: start, End: end})
	}

	text = normalizeLineEndings(text)
	old := string(b.text[start:end])
	b.replaceLocked(start, end, text)
	b.mu.Unlock()

	b.history.Record(history.NewOperation(start, old, text), start)
	return nil
}

// replaceLocked applies a replacement (must hold lock).
func (b *Buffer) replaceLocked(start, end int, text string) {
	ins := []rune(text)
	out := make([]rune, 0, len(b.text)-(end-start)+len(ins))
	out = append(out, b.text[:start]...)
	out = append(out, ins...)
	out = append(out, b.text[end:]...)
	b.text = out
	b.reindex()

	delta := len(ins) - (end - start)
	for i := range b.guards {
		if b.guards[i].Start >= end {
			b.guards[i].Start += delta
			b.guards[i].End += delta
		}
	}

	b.revision++
	b.modified = true
}

// rawTarget applies history replays without recording them.
type rawTarget struct{ b *Buffer }

func (t rawTarget) ApplyReplace(start, end int, text string) error {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	if err := t.b.checkRange(start, end); err != nil {
		return err
	}
	t.b.replaceLocked(start, end, text)
	return nil
}

// Guard marks [start, end) read-only. Guards move with edits before them.
func (b *Buffer) Guard(start, end int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRange(start, end); err != nil {
		return err
	}
	b.guards = append(b.guards, Range{Start: start, End: end})
	return nil
}

// IsGuarded reports whether editing [start, end) touches a guard.
func (b *Buffer) IsGuarded(start, end int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.guardedLocked(Range{Start: start, End: end})
}

func (b *Buffer) guardedLocked(r Range) bool {
	for _, g := range b.guards {
		if g.Overlaps(r) {
			return true
		}
	}
	return false
}

// BeginGroup starts an undo unit.
func (b *Buffer) BeginGroup(name string, caret int) {
	b.history.BeginGroup(name, caret)
}

// EndGroup closes an undo unit.
func (b *Buffer) EndGroup() {
	b.history.EndGroup()
}

// Undo reverts the last undo unit.
func (b *Buffer) Undo() (int, error) {
	return b.history.Undo(rawTarget{b})
}

// Redo reapplies the last reverted undo unit.
func (b *Buffer) Redo() (int, error) {
	return b.history.Redo(rawTarget{b})
}

// History returns the undo history.
func (b *Buffer) History() *history.History {
	return b.history
}

var (
	_ Provider = (*Buffer)(nil)
	_ Guarded  = (*Buffer)(nil)
	_ Undoer   = (*Buffer)(nil)
)
