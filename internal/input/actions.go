package input

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// actionSpec is a built-in action before registration.
type actionSpec struct {
	name  string
	keys  []string
	modes mode.Set
	flags keymap.Flags
	arg   keymap.ArgType
	fn    keymap.ActionFunc
}

const (
	edit       = keymap.FlagChangesText
	editInsert = keymap.FlagChangesText | keymap.FlagEntersInsert
	noDot      = keymap.FlagExcludedFromDot
)

// builtinActions returns the engine's own commands: the ones that need
// engine state rather than a motion or operator.
func (e *Engine) builtinActions() ([]*keymap.Descriptor, error) {
	n, v, s, i := mode.SetNormal, mode.SetVisual, mode.SetSelect, mode.SetInsert

	specs := []actionSpec{
		// Insert mode entry
		{name: "insert", keys: []string{"i", "<Insert>"}, modes: n, flags: editInsert, fn: e.insertAt('i')},
		{name: "append", keys: []string{"a"}, modes: n, flags: editInsert, fn: e.insertAt('a')},
		{name: "insert-line-start", keys: []string{"I"}, modes: n, flags: editInsert, fn: e.insertAt('I')},
		{name: "insert-column-zero", keys: []string{"gI"}, modes: n, flags: editInsert, fn: e.insertAt('0')},
		{name: "append-line-end", keys: []string{"A"}, modes: n, flags: editInsert, fn: e.insertAt('A')},
		{name: "open-below", keys: []string{"o"}, modes: n, flags: editInsert, fn: e.openLine(true)},
		{name: "open-above", keys: []string{"O"}, modes: n, flags: editInsert, fn: e.openLine(false)},
		{name: "replace-mode", keys: []string{"R"}, modes: n, flags: editInsert, fn: e.insertAt('R')},

		// Operator shorthands
		{name: "delete-char", keys: []string{"x", "<Del>"}, modes: n, flags: edit, fn: e.shorthand(vim.Delete, vim.MotionRight)},
		{name: "delete-char-before", keys: []string{"X"}, modes: n, flags: edit, fn: e.shorthand(vim.Delete, vim.MotionLeft)},
		{name: "delete-to-eol", keys: []string{"D"}, modes: n, flags: edit, fn: e.shorthand(vim.Delete, vim.MotionLineEnd)},
		{name: "change-to-eol", keys: []string{"C"}, modes: n, flags: editInsert, fn: e.shorthand(vim.Change, vim.MotionLineEnd)},
		{name: "substitute-char", keys: []string{"s"}, modes: n, flags: editInsert, fn: e.shorthand(vim.Change, vim.MotionRight)},
		{name: "substitute-line", keys: []string{"S"}, modes: n, flags: editInsert, fn: e.shorthand(vim.Change, nil)},
		{name: "yank-line", keys: []string{"Y"}, modes: n, fn: e.shorthand(vim.Yank, nil)},

		// Put, join, replace
		{name: "put-after", keys: []string{"p"}, modes: n, flags: edit, fn: e.put(true, false)},
		{name: "put-before", keys: []string{"P"}, modes: n, flags: edit, fn: e.put(false, false)},
		{name: "put-after-move", keys: []string{"gp"}, modes: n, flags: edit, fn: e.put(true, true)},
		{name: "put-before-move", keys: []string{"gP"}, modes: n, flags: edit, fn: e.put(false, true)},
		{name: "join", keys: []string{"J"}, modes: n, flags: edit, fn: e.join(true)},
		{name: "join-raw", keys: []string{"gJ"}, modes: n, flags: edit, fn: e.join(false)},
		{name: "replace-char", keys: []string{"r"}, modes: n, flags: edit, arg: keymap.ArgCharacter, fn: e.replaceChar},
		{name: "toggle-case-char", keys: []string{"~"}, modes: n, flags: edit, fn: e.toggleCaseChar},

		// History, repeat, macros
		{name: "undo", keys: []string{"u"}, modes: n, flags: noDot, fn: func(ctx *execctx.Context) error { return e.undo(ctx.GetCount()) }},
		{name: "redo", keys: []string{"<C-r>"}, modes: n, flags: noDot, fn: func(ctx *execctx.Context) error { return e.redo(ctx.GetCount()) }},
		{name: "repeat", keys: []string{"."}, modes: n, flags: noDot, fn: e.repeat},
		{name: "record-macro", keys: []string{"q"}, modes: n, flags: noDot | keymap.FlagNoCount, fn: e.recordMacro},
		{name: "play-macro", keys: []string{"@"}, modes: n, flags: noDot, arg: keymap.ArgCharacter, fn: e.playMacro},
		{name: "ex-command", keys: []string{":"}, modes: n | v, flags: noDot, arg: keymap.ArgExString, fn: e.exAction},

		// Selection modes
		{name: "visual", keys: []string{"v"}, modes: n | v, flags: noDot, fn: e.visual(mode.SelectChar, false)},
		{name: "visual-line", keys: []string{"V"}, modes: n | v, flags: noDot, fn: e.visual(mode.SelectLine, false)},
		{name: "visual-block", keys: []string{"<C-v>"}, modes: n | v, flags: noDot, fn: e.visual(mode.SelectBlock, false)},
		{name: "reselect", keys: []string{"gv"}, modes: n, flags: noDot, fn: e.reselect},
		{name: "select", keys: []string{"gh"}, modes: n, flags: noDot, fn: e.visual(mode.SelectChar, true)},
		{name: "select-line", keys: []string{"gH"}, modes: n, flags: noDot, fn: e.visual(mode.SelectLine, true)},
		{name: "select-block", keys: []string{"g<C-h>"}, modes: n, flags: noDot, fn: e.visual(mode.SelectBlock, true)},
		{name: "toggle-select", keys: []string{"<C-g>"}, modes: v | s, flags: noDot, fn: e.toggleSelect},

		// Visual mode
		{name: "visual-other-end", keys: []string{"o"}, modes: v, flags: noDot, fn: e.visualSwap(false)},
		{name: "visual-other-corner", keys: []string{"O"}, modes: v, flags: noDot, fn: e.visualSwap(true)},
		{name: "visual-delete", keys: []string{"x", "<Del>"}, modes: v, flags: edit, fn: e.visualOp(vim.Delete)},
		{name: "visual-delete-lines", keys: []string{"X", "D"}, modes: v, flags: edit, fn: e.visualLineOperator(vim.Delete)},
		{name: "visual-substitute", keys: []string{"s"}, modes: v, flags: editInsert, fn: e.visualOp(vim.Change)},
		{name: "visual-change-lines", keys: []string{"S", "R", "C"}, modes: v, flags: editInsert, fn: e.visualLineOperator(vim.Change)},
		{name: "visual-yank-lines", keys: []string{"Y"}, modes: v, fn: e.visualLineOperator(vim.Yank)},
		{name: "visual-replace", keys: []string{"r"}, modes: v, flags: edit, arg: keymap.ArgCharacter, fn: e.visualReplace},
		{name: "visual-join", keys: []string{"J"}, modes: v, flags: edit, fn: e.visualJoin(true)},
		{name: "visual-join-raw", keys: []string{"gJ"}, modes: v, flags: edit, fn: e.visualJoin(false)},
		{name: "visual-put", keys: []string{"p"}, modes: v, flags: edit, fn: e.visualPut(false)},
		{name: "visual-put-keep", keys: []string{"P"}, modes: v, flags: edit, fn: e.visualPut(true)},
		{name: "visual-insert", keys: []string{"I"}, modes: v, flags: editInsert, fn: e.visualInsert(false)},
		{name: "visual-append", keys: []string{"A"}, modes: v, flags: editInsert, fn: e.visualInsert(true)},

		// Select mode
		{name: "select-delete", keys: []string{"<BS>", "<C-h>", "<Del>"}, modes: s, fn: e.selectDelete},

		// Insert mode
		{name: "insert-backspace", keys: []string{"<BS>", "<C-h>"}, modes: i, fn: e.insertBackspace},
		{name: "insert-delete", keys: []string{"<Del>"}, modes: i, fn: e.insertDelete},
		{name: "insert-delete-word", keys: []string{"<C-w>"}, modes: i, fn: e.insertDeleteWord},
		{name: "insert-delete-line", keys: []string{"<C-u>"}, modes: i, fn: e.insertDeleteLine},
		{name: "insert-register", keys: []string{"<C-r>"}, modes: i, arg: keymap.ArgCharacter, fn: e.insertRegister},
		{name: "insert-literal", keys: []string{"<C-v>", "<C-q>"}, modes: i, fn: e.insertLiteral},
		{name: "insert-normal", keys: []string{"<C-o>"}, modes: i, fn: e.insertOneCommand},
		{name: "insert-toggle-replace", keys: []string{"<Insert>"}, modes: i, fn: e.insertToggleReplace},
		{name: "insert-left", keys: []string{"<Left>"}, modes: i, fn: e.insertMove(key.KeyLeft)},
		{name: "insert-right", keys: []string{"<Right>"}, modes: i, fn: e.insertMove(key.KeyRight)},
		{name: "insert-up", keys: []string{"<Up>"}, modes: i, fn: e.insertMove(key.KeyUp)},
		{name: "insert-down", keys: []string{"<Down>"}, modes: i, fn: e.insertMove(key.KeyDown)},
		{name: "insert-home", keys: []string{"<Home>"}, modes: i, fn: e.insertMove(key.KeyHome)},
		{name: "insert-end", keys: []string{"<End>"}, modes: i, fn: e.insertMove(key.KeyEnd)},
	}

	var out []*keymap.Descriptor
	for _, sp := range specs {
		for _, k := range sp.keys {
			d, err := keymap.ActionDescriptor(sp.name, k, sp.modes, sp.fn, sp.flags)
			if err != nil {
				return nil, err
			}
			d.Arg = sp.arg
			out = append(out, d)
		}
	}
	return out, nil
}

// actionChange returns the change of the running action.
func (e *Engine) actionChange() macro.Change {
	if e.action == nil {
		return macro.Change{}
	}
	return *e.action
}

// markPut marks the running action as a put for repeat.
func (e *Engine) markPut() {
	if e.action != nil {
		e.action.Put = true
	}
}

// shorthand applies op over motion m, or over count lines when m is nil.
// x on an empty line and s at a line end work on an empty range.
func (e *Engine) shorthand(op *vim.Operator, m *vim.Motion) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		sel := vim.Selector{Motion: m, Line: m == nil, Count: ctx.Count}
		rr, err := e.composer.Compose(e.buf, e.motion, op, sel, e.caret, 0)
		if errors.Is(err, vim.ErrMotionFailed) && m == vim.MotionRight {
			rr, err = vim.RangeResult{Start: e.caret, End: e.caret, Wise: register.Charwise}, nil
		}
		if err != nil {
			return err
		}
		return e.applyOperator(op, rr, ctx.Register, e.actionChange())
	}
}

func (e *Engine) visualOp(op *vim.Operator) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		return e.visualOperator(op, ctx.Keys)
	}
}

func (e *Engine) visual(sel mode.SelectionKind, selectMode bool) keymap.ActionFunc {
	return func(*execctx.Context) error {
		e.enterVisual(sel, selectMode)
		return nil
	}
}

// put inserts a register after or before the caret. gp and gP leave the
// caret after the new text.
func (e *Engine) put(after, move bool) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		name := ctx.Register
		if name == 0 {
			name = e.regs.DefaultRegister()
		}
		pl, ok := e.regs.Read(name)
		if !ok || pl.IsEmpty() {
			return fmt.Errorf("%w: %q", macro.ErrEmptyRegister, name)
		}
		e.markPut()

		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		count := ctx.GetCount()
		line := snap.Line(e.caret)

		switch pl.Wise {
		case register.Linewise:
			return e.putLines(ctx, snap, pl, line, count, after, move)
		case register.Blockwise:
			return e.putBlock(ctx, snap, pl, count, after)
		}

		text := strings.Repeat(pl.Text, count)
		off := e.caret
		if after && snap.LineEnd(line) > snap.LineStart(line) {
			off++
		}
		if err := e.buf.Insert(off, text); err != nil {
			return err
		}
		n := len([]rune(text))
		switch {
		case move:
			ctx.Caret = off + n
		case strings.Contains(text, "\n"):
			ctx.Caret = off
		default:
			ctx.Caret = off + n - 1
		}
		return nil
	}
}

func (e *Engine) putLines(ctx *execctx.Context, snap *vim.Snapshot, pl register.Payload, line, count int, after, move bool) error {
	text := strings.Repeat(pl.Text, count)
	first := line
	off := snap.LineStart(line)
	if after {
		first = line + 1
		off = snap.LineEnd(line)
		if off == snap.Len() {
			// Last line without a newline: the newline goes first.
			text = "\n" + strings.TrimSuffix(text, "\n")
		} else {
			off++
		}
	}
	if err := e.buf.Insert(off, text); err != nil {
		return err
	}
	after2, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	if move {
		added := strings.Count(pl.Text, "\n") * count
		ctx.Caret = after2.LineStart(min(first+added, after2.LineCount()-1))
		return nil
	}
	ctx.Caret = after2.FirstNonBlank(min(first, after2.LineCount()-1))
	return nil
}

func (e *Engine) putBlock(ctx *execctx.Context, snap *vim.Snapshot, pl register.Payload, count int, after bool) error {
	line := snap.Line(e.caret)
	col := snap.Column(e.caret)
	if after && snap.LineEnd(line) > snap.LineStart(line) {
		col++
	}
	for i, row := range pl.Rows() {
		cur, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		l := line + i
		if l >= cur.LineCount() {
			if err := e.buf.Insert(cur.Len(), "\n"); err != nil {
				return err
			}
			if cur, err = vim.Take(e.buf); err != nil {
				return err
			}
		}
		ls, le := cur.LineStart(l), cur.LineEnd(l)
		text := strings.Repeat(row, count)
		pos := ls + col
		if pos > le {
			text = strings.Repeat(" ", pos-le) + text
			pos = le
		}
		if err := e.buf.Insert(pos, text); err != nil {
			return err
		}
	}
	ctx.Caret = snap.LineStart(line) + col
	return nil
}

// join joins count lines (at least two) at the caret.
func (e *Engine) join(spaces bool) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		return e.joinLines(max(ctx.GetCount(), 2), spaces)
	}
}

// joinLines joins n lines starting at the caret line. With spaces, the
// leading blanks of joined lines are replaced by one space.
func (e *Engine) joinLines(n int, spaces bool) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	line := snap.Line(e.caret)
	if line+1 >= snap.LineCount() {
		return vim.ErrMotionFailed
	}
	joins := min(n-1, snap.LineCount()-1-line)

	for range joins {
		snap, err = vim.Take(e.buf)
		if err != nil {
			return err
		}
		end := snap.LineEnd(line)
		next := end + 1
		sep := ""
		if spaces {
			nextEnd := snap.LineEnd(line + 1)
			for next < nextEnd && unicode.IsSpace(snap.At(next)) {
				next++
			}
			switch {
			case next == nextEnd:
			case end > snap.LineStart(line) && unicode.IsSpace(snap.At(end-1)):
			case snap.At(next) == ')':
			default:
				sep = " "
			}
		}
		if err := e.replaceText(end, next, sep); err != nil {
			return err
		}
		e.caret = end
	}
	return nil
}

// replaceChar replaces count runes with the argument (r{char}).
// r<CR> splits the line instead.
func (e *Engine) replaceChar(ctx *execctx.Context) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	n := ctx.GetCount()
	end := snap.LineEnd(snap.Line(e.caret))
	if e.caret+n > end {
		return vim.ErrMotionFailed
	}
	if ctx.Char == '\n' {
		if err := e.replaceText(e.caret, e.caret+n, "\n"); err != nil {
			return err
		}
		ctx.Caret = e.caret + 1
		return nil
	}
	if err := e.replaceText(e.caret, e.caret+n, strings.Repeat(string(ctx.Char), n)); err != nil {
		return err
	}
	ctx.Caret = e.caret + n - 1
	return nil
}

// toggleCaseChar switches the case of count runes and moves past them.
func (e *Engine) toggleCaseChar(ctx *execctx.Context) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	line := snap.Line(e.caret)
	end := min(e.caret+ctx.GetCount(), snap.LineEnd(line))
	if end <= e.caret {
		return nil
	}
	text := strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, snap.Slice(e.caret, end))
	if err := e.replaceText(e.caret, end, text); err != nil {
		return err
	}
	ctx.Caret = min(end, snap.LastChar(line))
	return nil
}

func (e *Engine) undoer() (buffer.Undoer, error) {
	u, ok := e.buf.(buffer.Undoer)
	if !ok {
		return nil, ErrUndoUnsupported
	}
	return u, nil
}

// undo undoes count changes. Undoing stops quietly at the oldest change
// once something was undone.
func (e *Engine) undo(count int) error {
	u, err := e.undoer()
	if err != nil {
		return err
	}
	for i := range max(count, 1) {
		caret, err := u.Undo()
		if err != nil {
			if i > 0 {
				break
			}
			return err
		}
		e.caret = caret
	}
	e.clampCaret()
	e.updateColumn()
	return nil
}

func (e *Engine) redo(count int) error {
	u, err := e.undoer()
	if err != nil {
		return err
	}
	for i := range max(count, 1) {
		caret, err := u.Redo()
		if err != nil {
			if i > 0 {
				break
			}
			return err
		}
		e.caret = caret
	}
	e.clampCaret()
	e.updateColumn()
	return nil
}

// repeat replays the last change (.). A count replaces the count of the
// change.
func (e *Engine) repeat(ctx *execctx.Context) error {
	e.beginUndo("repeat")
	defer e.endUndo()
	return e.repeater.Repeat(ctx.Count, e.replay)
}

// replay feeds the keys of c without remapping. Visual changes first
// select an area of the recorded size.
func (e *Engine) replay(c macro.Change) error {
	e.log.Debug("engine %s: repeat %s", e.id, c.Keys())
	if c.Visual == nil {
		return e.feed(c.Keys(), false)
	}
	if err := e.selectExtent(*c.Visual); err != nil {
		return err
	}
	var keys key.Sequence
	if c.Register != 0 {
		keys = append(keys, key.Char('"'), key.Char(c.Register))
	}
	keys = append(keys, c.OpKeys...)
	keys = append(keys, c.Tail...)
	return e.feed(keys, false)
}

// recordMacro starts recording into the register named by the next key,
// or stops the running recording.
func (e *Engine) recordMacro(ctx *execctx.Context) error {
	if e.recorder.IsRecording() {
		name, keys, err := e.recorder.StopRecording(1)
		if err != nil {
			return err
		}
		e.log.Info("engine %s: recorded %d keys into %q", e.id, len(keys), name)
		return nil
	}
	e.suspendFor(ctx.Keys, false, func(ev key.Event) error {
		r, ok := ev.CharValue()
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotACharacter, ev)
		}
		return e.recorder.StartRecording(r)
	})
	return nil
}

// playMacro plays the register named by the argument count times.
func (e *Engine) playMacro(ctx *execctx.Context) error {
	return e.player.Play(context.Background(), ctx.Char, ctx.GetCount(), func(keys key.Sequence) error {
		return e.feed(keys, true)
	})
}

// exAction runs the ex command typed after ":".
func (e *Engine) exAction(ctx *execctx.Context) error {
	if e.modes.Current().HasSelection() {
		e.leaveVisual()
	}
	if strings.TrimSpace(ctx.Str) != "" {
		e.regs.SetLastCommand(ctx.Str)
	}
	return e.execute(ctx.Str)
}
