// Package register implements Vim-style registers.
//
// Registers are identified by a single character:
//
//	a-z     named registers; A-Z append to the lowercase register
//	0       last yank into the default register
//	1-9     delete history, rotated on every multi-line delete
//	"       unnamed register
//	-       small (within one line) deletes
//	_       black hole, writes are discarded
//	. : / % read-only, recomputed by the engine
//	+ *     system clipboard
//	=       expression register
//
// Named and numbered registers are process-wide and live in a Shared store.
// Every editor view owns a Store that wraps the Shared one and holds the
// remaining slots.
package register
