// Package buffer provides the text buffer consumed by the modal engine.
//
// Provider is the narrow contract the engine needs: length and line
// count, offset/line conversion, reading a range, and inserting or
// deleting by range. Offsets count runes. Offsets outside the buffer fail
// with ErrOffsetOutOfRange instead of being clamped; the engine decides
// per command whether to clamp or fail.
//
// Two optional interfaces extend a Provider:
//
//   - Guarded reports read-only regions, used by line deletion to pick a
//     newline shift policy that avoids them
//   - Undoer exposes grouped undo/redo
//
// Buffer is the in-memory implementation:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//	buf.Insert(7, "Beautiful ")  // "Hello, Beautiful World!"
//	buf.Delete(0, 7)             // "Beautiful World!"
//	buf.Undo()                   // "Hello, Beautiful World!"
package buffer
