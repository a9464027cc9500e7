// Package vim composes Vim operators with motions and text objects into
// concrete ranges and applies them to a buffer.
//
// The grammar handled by the dispatch loop is:
//
//	[count]["x][operator][count][motion|text-object]
//	[count]["x][operator][line-key]   (line-wise: dd, yy, cc, guu)
//	[count][motion]
//
// This package supplies the pieces that grammar resolves to:
//   - Motions: caret movements like w, e, b, j, f{char}, n
//   - Text objects: structural selections like iw, a", i(, it, ae
//   - Operators: d, c, y, >, <, gu, gU, g~
//
// Counts before the operator and before the motion multiply and saturate
// ("2d3w" deletes six words). Motions and objects run over a Snapshot of
// the buffer using rune offsets.
//
// # Ranges
//
// Compose produces a RangeResult. Char-wise ranges follow Vim's
// exclusive/inclusive rules, including the column 0 adjustment and the
// special cases of dw at a line end and cw on a word. Line-wise ranges
// carry a ShiftPolicy that chooses which newline goes with the lines:
//
//	AttachNewlineToStart  ordinary lines; the following line moves up
//	AttachNewlineToEnd    the range ends on the last line
//	KeepNoNewline         the range covers the whole buffer
//
// When the buffer reports a guarded region, Unguard falls back between
// the policies before giving up. Block-wise ranges iterate rows; a row
// that ends before the block yields an empty edit unless the operator
// skips short rows.
//
// # Usage
//
//	c := vim.NewComposer(0)
//	rr, err := c.Compose(buf, state, vim.Delete, vim.Selector{Motion: vim.MotionWordForward, Count: 3}, caret, 2)
//	if err != nil {
//	    return err
//	}
//	out, err := c.Apply(vim.Env{Buf: buf, Registers: regs, Caret: caret}, vim.Delete, rr)
package vim
