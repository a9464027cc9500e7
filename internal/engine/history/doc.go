// Package history provides undo/redo for a buffer.
//
// An Operation records one replacement: the offset, the text that was
// removed and the text that was inserted. Operations are collected into
// entries; an entry is the unit of undo.
//
//	h := NewHistory(1000) // Max 1000 undo entries
//	h.Record(NewInsertOperation(0, "x"), caret)
//
//	// Undo/redo through the buffer's raw editing target
//	h.Undo(target)
//	h.Redo(target)
//
// # Grouping
//
// Multiple operations can be grouped as a single undo unit. The engine
// groups every Insert session and every operator so that one "u" reverts
// the whole change:
//
//	h.BeginGroup("change", caret)
//	// ... multiple edits ...
//	h.EndGroup()
package history
