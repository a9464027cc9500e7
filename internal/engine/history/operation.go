package history

import (
	"time"
	"unicode/utf8"
)

// Operation represents a single undoable edit. Offsets count runes.
type Operation struct {
	Start   int    // Offset of the edit in the original document
	OldText string // Text that was replaced (for undo)
	NewText string // Text that was inserted (for redo)

	Timestamp time.Time
}

// NewOperation creates a new operation.
func NewOperation(start int, oldText, newText string) *Operation {
	return &Operation{
		Start:     start,
		OldText:   oldText,
		NewText:   newText,
		Timestamp: time.Now(),
	}
}

// NewInsertOperation creates an operation for an insertion.
func NewInsertOperation(offset int, text string) *Operation {
	return NewOperation(offset, "", text)
}

// NewDeleteOperation creates an operation for a deletion.
func NewDeleteOperation(start int, deletedText string) *Operation {
	return NewOperation(start, deletedText, "")
}

// IsInsert returns true if this operation is a pure insertion.
func (op *Operation) IsInsert() bool {
	return op.OldText == "" && op.NewText != ""
}

// IsDelete returns true if this operation is a pure deletion.
func (op *Operation) IsDelete() bool {
	return op.OldText != "" && op.NewText == ""
}

// IsNoop returns true if this operation makes no changes.
func (op *Operation) IsNoop() bool {
	return op.OldText == op.NewText
}

// End returns the end of the replaced text in the original document.
func (op *Operation) End() int {
	return op.Start + utf8.RuneCountInString(op.OldText)
}

// NewEnd returns the end of the inserted text after the operation.
func (op *Operation) NewEnd() int {
	return op.Start + utf8.RuneCountInString(op.NewText)
}

// Delta returns the change in document length.
func (op *Operation) Delta() int {
	return utf8.RuneCountInString(op.NewText) - utf8.RuneCountInString(op.OldText)
}

// Invert returns an operation that undoes this one.
func (op *Operation) Invert() *Operation {
	return &Operation{
		Start:     op.Start,
		OldText:   op.NewText,
		NewText:   op.OldText,
		Timestamp: time.Now(),
	}
}
