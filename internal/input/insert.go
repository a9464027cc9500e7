package input

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/vim"
)

// insertOpts describes how an insert session starts.
type insertOpts struct {
	// change is the command that entered Insert mode. When empty, the
	// running action's change is used.
	change macro.Change

	// count repeats the typed text when the session ends.
	count int

	// replace starts Replace mode.
	replace bool

	// undoOpen is set when the caller already opened the undo group of
	// the session.
	undoOpen bool

	// again runs before every repetition of the typed text, as o opens
	// a new line.
	again func() error

	// block repeats the typed text on every row of a Visual block.
	block       *vim.Block
	blockCol    int
	blockAppend bool
	blockEOL    bool
}

// overtyped is one rune typed in Replace mode: the rune it replaced, if
// any, so <BS> can restore it.
type overtyped struct {
	had bool
	r   rune
}

// insertState is the open insert session.
type insertState struct {
	opts  insertOpts
	start int

	// keys are the keys typed in the session, replayed for a count.
	keys key.Sequence

	// text is the text typed in the session, for the . register.
	text []rune

	replaced  []overtyped
	replaying bool
}

// startInsert enters Insert or Replace mode and opens an insert session.
func (e *Engine) startInsert(o insertOpts) {
	target := mode.InsertMode
	if o.replace {
		target = mode.ReplaceMode
	}
	md := e.modes.Current()
	switch {
	case md.Kind == mode.InsertNormal:
		e.modes.Pop()
		e.modes.Switch(target)
	case md.IsTyping():
		e.modes.Switch(target)
	default:
		e.modes.Push(target)
	}

	if e.insert != nil {
		// A command run with <C-o> re-entered Insert mode; the session
		// already holds an undo group.
		if o.undoOpen {
			e.endUndo()
		}
	} else if !o.undoOpen {
		e.beginUndo("insert")
	}

	change := o.change
	if change.IsEmpty() && e.action != nil {
		change = *e.action
	}
	if !change.IsEmpty() {
		e.repeater.BeginSession(change)
	}

	if o.count < 1 {
		o.count = 1
	}
	e.insert = &insertState{opts: o, start: e.caret}
	e.toEOL = false
}

// recordInsertKey adds ev to the insert session.
func (e *Engine) recordInsertKey(ev key.Event) {
	st := e.insert
	if st == nil || st.replaying || !e.modes.Current().IsTyping() {
		return
	}
	st.keys = append(st.keys, ev)
	e.repeater.RecordInsertKey(ev)
}

// endInsert closes the insert session with the key that left Insert mode.
func (e *Engine) endInsert(end key.Event) error {
	st := e.insert
	if st == nil {
		e.modes.Pop()
		e.clampCaret()
		return nil
	}
	e.repeater.EndSession(end)

	var err error
	if st.opts.count > 1 {
		st.replaying = true
		keys := st.keys.Clone()
		for i := 1; i < st.opts.count && err == nil; i++ {
			if st.opts.again != nil {
				if err = st.opts.again(); err != nil {
					break
				}
			}
			err = e.replayInsert(keys)
		}
		st.replaying = false
	}
	if err == nil && st.opts.block != nil {
		err = e.replicateBlock(st)
	}

	e.regs.SetLastInserted(string(st.text))
	e.insert = nil
	e.endUndo()
	e.modes.Pop()

	if st.opts.block != nil {
		e.caret = st.start
	} else if snap, serr := vim.Take(e.buf); serr == nil {
		// The caret steps back onto the last typed rune.
		if e.caret > snap.LineStart(snap.Line(e.caret)) {
			e.caret--
		}
	}
	e.clampCaret()
	e.updateColumn()
	return err
}

// replayInsert types keys again for an insert count.
func (e *Engine) replayInsert(keys key.Sequence) error {
	for _, ev := range keys {
		if err := e.step(ev, false, false); err != nil {
			return err
		}
	}
	return nil
}

// replicateBlock repeats the text typed on the first row of a block on
// the other rows.
func (e *Engine) replicateBlock(st *insertState) error {
	text := string(st.text)
	if text == "" || strings.ContainsRune(text, '\n') {
		return nil
	}
	b := st.opts.block
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	// Bottom-up keeps the offsets of the rows above valid.
	for line := b.EndLine; line > b.StartLine; line-- {
		ls, le := snap.LineStart(line), snap.LineEnd(line)
		pos := ls + st.opts.blockCol
		switch {
		case st.opts.blockEOL:
			pos = le
		case pos > le:
			if !st.opts.blockAppend {
				continue
			}
			if err := e.buf.Insert(le, strings.Repeat(" ", pos-le)+text); err != nil {
				return err
			}
			continue
		}
		if err := e.buf.Insert(pos, text); err != nil {
			return err
		}
	}
	return nil
}

// typeKeys inserts the characters of keys. A key without a character is
// an error.
func (e *Engine) typeKeys(keys key.Sequence) error {
	for _, ev := range keys {
		if err := e.typeKey(ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) typeKey(ev key.Event) error {
	r, ok := ev.CharValue()
	if !ok {
		return &keymap.NoMatchError{Keys: ev.String(), Mode: e.modes.Current().Name()}
	}
	if r == '\t' && e.cfg.ExpandTab {
		col := 0
		if snap, err := vim.Take(e.buf); err == nil {
			col = snap.Column(e.caret)
		}
		sw := e.cfg.ShiftWidth
		return e.insertText(strings.Repeat(" ", sw-col%sw))
	}
	return e.insertText(string(r))
}

// insertText types s at the caret, overtyping in Replace mode.
func (e *Engine) insertText(s string) error {
	if s == "" {
		return nil
	}
	if e.modes.Current().Kind == mode.Replace {
		return e.overtype(s)
	}
	if err := e.buf.Insert(e.caret, s); err != nil {
		return err
	}
	e.caret += utf8.RuneCountInString(s)
	e.noteTyped(s)
	return nil
}

func (e *Engine) noteTyped(s string) {
	if st := e.insert; st != nil && !st.replaying {
		st.text = append(st.text, []rune(s)...)
	}
}

// overtype replaces runes under the caret with s. Line ends are never
// overtyped; past them s is inserted.
func (e *Engine) overtype(s string) error {
	for _, r := range s {
		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		ov := overtyped{}
		if r != '\n' && e.caret < snap.LineEnd(snap.Line(e.caret)) {
			ov = overtyped{had: true, r: snap.At(e.caret)}
			err = e.replaceText(e.caret, e.caret+1, string(r))
		} else {
			err = e.buf.Insert(e.caret, string(r))
		}
		if err != nil {
			return err
		}
		e.caret++
		if st := e.insert; st != nil {
			st.replaced = append(st.replaced, ov)
		}
	}
	e.noteTyped(s)
	return nil
}

// replaceText replaces [start, end) with text.
func (e *Engine) replaceText(start, end int, text string) error {
	if r, ok := e.buf.(interface {
		Replace(start, end int, text string) error
	}); ok {
		return r.Replace(start, end, text)
	}
	if err := e.buf.Delete(start, end); err != nil {
		return err
	}
	return e.buf.Insert(start, text)
}

// dropTyped forgets the last n typed runes.
func (e *Engine) dropTyped(n int) {
	if st := e.insert; st != nil && !st.replaying {
		st.text = st.text[:max(0, len(st.text)-n)]
	}
}

// deleteBefore deletes [from, e.caret) in Insert mode.
func (e *Engine) deleteBefore(from int) error {
	if from >= e.caret {
		return nil
	}
	if err := e.buf.Delete(from, e.caret); err != nil {
		return err
	}
	e.dropTyped(e.caret - from)
	e.caret = from
	return nil
}

func (e *Engine) insertBackspace(*execctx.Context) error {
	st := e.insert
	if e.modes.Current().Kind == mode.Replace {
		if st == nil || len(st.replaced) == 0 {
			e.caret = max(0, e.caret-1)
			return nil
		}
		ov := st.replaced[len(st.replaced)-1]
		st.replaced = st.replaced[:len(st.replaced)-1]
		e.caret--
		e.dropTyped(1)
		if ov.had {
			return e.replaceText(e.caret, e.caret+1, string(ov.r))
		}
		return e.buf.Delete(e.caret, e.caret+1)
	}
	if e.caret == 0 {
		return nil
	}
	return e.deleteBefore(e.caret - 1)
}

func (e *Engine) insertDelete(*execctx.Context) error {
	if e.caret >= e.buf.Len() {
		return nil
	}
	return e.buf.Delete(e.caret, e.caret+1)
}

// insertDeleteWord deletes the word before the caret (<C-w>).
func (e *Engine) insertDeleteWord(ctx *execctx.Context) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	ls := snap.LineStart(snap.Line(e.caret))
	if e.caret == ls {
		return e.insertBackspace(ctx)
	}
	i := e.caret
	for i > ls && unicode.IsSpace(snap.At(i-1)) {
		i--
	}
	if i > ls {
		cls := wordClass(snap.At(i - 1))
		for i > ls && !unicode.IsSpace(snap.At(i-1)) && wordClass(snap.At(i-1)) == cls {
			i--
		}
	}
	return e.deleteBefore(i)
}

func wordClass(r rune) int {
	if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return 2
	}
	return 1
}

// insertDeleteLine deletes the text typed on the line, or the whole line
// before the caret (<C-u>).
func (e *Engine) insertDeleteLine(*execctx.Context) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	from := snap.LineStart(snap.Line(e.caret))
	if st := e.insert; st != nil && st.start > from && st.start < e.caret {
		from = st.start
	}
	return e.deleteBefore(from)
}

// insertRegister types the content of the register named by the key
// after <C-r>. <C-r>= prompts for an expression.
func (e *Engine) insertRegister(ctx *execctx.Context) error {
	if ctx.Char == '=' {
		return e.openCmdline('=', func(src string) error {
			p, err := e.regs.SetExpression(src)
			if err != nil {
				return e.evalError(src, err)
			}
			return e.insertText(p.Text)
		})
	}
	if err := validRegister(ctx.Char); err != nil {
		return err
	}
	p, ok := e.regs.Read(ctx.Char)
	if !ok || p.IsEmpty() {
		return fmt.Errorf("%w: %q", macro.ErrEmptyRegister, ctx.Char)
	}
	return e.insertText(p.Text)
}

// insertLiteral types the next key literally (<C-v>).
func (e *Engine) insertLiteral(ctx *execctx.Context) error {
	e.suspendFor(ctx.Keys, true, func(ev key.Event) error {
		switch {
		case ev.IsEscape():
			return e.insertText("\x1b")
		case ev.IsRune() && ev.Modifiers.HasCtrl() && ev.Rune >= 'a' && ev.Rune <= 'z':
			return e.insertText(string(ev.Rune - 'a' + 1))
		}
		if r, ok := ev.CharValue(); ok {
			return e.insertText(string(r))
		}
		return e.insertText(ev.String())
	})
	return nil
}

// insertOneCommand runs one Normal mode command from Insert mode (<C-o>).
// The insert session ends for repeat purposes and continues afterwards.
func (e *Engine) insertOneCommand(*execctx.Context) error {
	if st := e.insert; st != nil {
		if n := len(st.keys); n > 0 {
			st.keys = st.keys[:n-1]
		}
		st.opts.count = 1
		e.repeater.DropInsertKeys(1)
		e.repeater.EndSession(key.Special(key.KeyEscape))
	}
	e.modes.Push(mode.InsertNormalMode)
	return nil
}

// insertToggleReplace switches between Insert and Replace mode (<Insert>).
func (e *Engine) insertToggleReplace(*execctx.Context) error {
	if e.modes.Current().Kind == mode.Replace {
		e.modes.Switch(mode.InsertMode)
	} else {
		e.modes.Switch(mode.ReplaceMode)
	}
	return nil
}

// insertMove moves the caret in Insert mode without leaving it.
func (e *Engine) insertMove(dir key.Key) keymap.ActionFunc {
	return func(*execctx.Context) error {
		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		line := snap.Line(e.caret)
		ls, le := snap.LineStart(line), snap.LineEnd(line)
		switch dir {
		case key.KeyLeft:
			if e.caret > ls {
				e.caret--
			}
		case key.KeyRight:
			if e.caret < le {
				e.caret++
			}
		case key.KeyHome:
			e.caret = ls
		case key.KeyEnd:
			e.caret = le
		case key.KeyUp, key.KeyDown:
			target := line - 1
			if dir == key.KeyDown {
				target = line + 1
			}
			if target < 0 || target >= snap.LineCount() {
				return nil
			}
			e.caret = snap.OffsetAt(target, snap.Column(e.caret), true)
		}
		if st := e.insert; st != nil {
			st.start = e.caret
			st.replaced = nil
		}
		return nil
	}
}

// insertAt enters Insert mode at a position derived from the caret.
func (e *Engine) insertAt(where rune) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		snap, err := vim.Take(e.buf)
		if err != nil {
			return err
		}
		line := snap.Line(e.caret)
		switch where {
		case 'a':
			if e.caret < snap.LineEnd(line) {
				e.caret++
			}
		case 'A':
			e.caret = snap.LineEnd(line)
		case 'I':
			if snap.IsBlankLine(line) {
				e.caret = snap.LineEnd(line)
			} else {
				e.caret = snap.FirstNonBlank(line)
			}
		case '0':
			e.caret = snap.LineStart(line)
		}
		e.startInsert(insertOpts{count: ctx.Count, replace: where == 'R'})
		return nil
	}
}

// openLine opens a new line below or above the caret line and enters
// Insert mode on it.
func (e *Engine) openLine(below bool) keymap.ActionFunc {
	return func(ctx *execctx.Context) error {
		e.beginUndo("open-line")
		if err := e.openLineAt(below); err != nil {
			e.endUndo()
			return err
		}
		e.startInsert(insertOpts{
			count:    ctx.Count,
			undoOpen: true,
			again:    func() error { return e.openLineAt(true) },
		})
		return nil
	}
}

func (e *Engine) openLineAt(below bool) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	line := snap.Line(e.caret)
	if below {
		off := snap.LineEnd(line)
		if err := e.buf.Insert(off, "\n"); err != nil {
			return err
		}
		e.caret = off + 1
		return nil
	}
	off := snap.LineStart(line)
	if err := e.buf.Insert(off, "\n"); err != nil {
		return err
	}
	e.caret = off
	return nil
}
