package input

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// exCommand is an ex command other than the :map family.
type exCommand struct {
	name string
	// min is the length of the shortest accepted abbreviation.
	min int
	run func(e *Engine, bang bool, args string) error
}

func exCommands() []exCommand {
	return []exCommand{
		{"registers", 3, (*Engine).exRegisters},
		{"display", 2, (*Engine).exRegisters},
		{"normal", 4, (*Engine).exNormal},
		{"set", 2, (*Engine).exSet},
		{"let", 3, (*Engine).exLet},
		{"nohlsearch", 3, (*Engine).exNohlsearch},
		{"undo", 1, (*Engine).exUndo},
		{"redo", 3, (*Engine).exRedo},
	}
}

// CommandFunc runs a host-defined ex command. It is called with the
// engine locked and must not call methods of the engine.
type CommandFunc func(bang bool, args string) error

// DefineCommand adds an ex command, such as :write, that the engine
// itself does not implement. minLen is the length of the shortest
// accepted abbreviation. Built-in commands take precedence.
func (e *Engine) DefineCommand(name string, minLen int, fn CommandFunc) error {
	if name == "" || fn == nil || strings.IndexFunc(name, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
		return fmt.Errorf("%w: command name %q", ErrInvalidArgument, name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.commands == nil {
		e.commands = make(map[string]exCommand)
	}
	e.commands[name] = exCommand{
		name: name,
		min:  max(1, min(minLen, len(name))),
		run:  func(_ *Engine, bang bool, args string) error { return fn(bang, args) },
	}
	return nil
}

func (c exCommand) matches(name string) bool {
	return len(name) >= c.min && strings.HasPrefix(c.name, name)
}

// Execute runs an ex command line as if typed after ":".
func (e *Engine) Execute(line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	err := e.execute(line)
	if err != nil {
		e.recover(err)
	}
	return err
}

func (e *Engine) execute(line string) error {
	line = strings.TrimLeft(line, ": \t")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
		return e.gotoLine(n)
	}

	end := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(line)
	}
	name, rest := line[:end], line[end:]
	if name == "" {
		return fmt.Errorf("%w: %s", ErrNotAnEditorCommand, line)
	}
	bang := strings.HasPrefix(rest, "!")
	if bang {
		rest = rest[1:]
	}
	args := strings.TrimLeft(rest, " \t")

	full := name
	if bang {
		full += "!"
	}
	if keymap.IsMapCommand(full) {
		return e.exMap(full, args)
	}
	for _, c := range exCommands() {
		if c.matches(name) {
			return c.run(e, bang, args)
		}
	}
	if c, ok := e.commands[name]; ok {
		return c.run(e, bang, args)
	}
	for _, c := range e.commands {
		if c.matches(name) {
			return c.run(e, bang, args)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotAnEditorCommand, name)
}

// exMap runs a command of the :map family.
func (e *Engine) exMap(name, args string) error {
	cmd, err := keymap.ParseCommand(name, args)
	if err != nil {
		return err
	}
	list, err := cmd.Execute(e.maps)
	if err != nil {
		return err
	}
	if cmd.Kind != keymap.CommandList {
		return nil
	}
	if len(list) == 0 {
		e.notifier.StatusMessage("No mapping found")
		return nil
	}
	for _, m := range list {
		e.notifier.StatusMessage(m.String())
	}
	return nil
}

// gotoLine moves the caret to the first non-blank of line n (1-based).
func (e *Engine) gotoLine(n int) error {
	snap, err := vim.Take(e.buf)
	if err != nil {
		return err
	}
	line := max(0, min(n-1, snap.LineCount()-1))
	e.caret = snap.FirstNonBlank(line)
	e.updateColumn()
	return nil
}

// exRegisters lists registers; args restricts the listing to the named
// registers.
func (e *Engine) exRegisters(_ bool, args string) error {
	names := strings.Join(strings.Fields(args), "")
	e.notifier.StatusMessage("Type Name Content")
	for _, line := range FormatRegisters(e.regs, names) {
		e.notifier.StatusMessage(line)
	}
	return nil
}

// FormatRegisters returns the :registers listing of the non-empty
// registers, restricted to names when it is not empty.
func FormatRegisters(regs *register.Store, names string) []string {
	var out []string
	for _, en := range regs.All() {
		if names != "" && !strings.ContainsRune(names, en.Name) {
			continue
		}
		out = append(out, fmt.Sprintf("  %s  \"%c   %s", wiseLetter(en.Payload.Wise), en.Name, printable(en.Payload.Text)))
	}
	return out
}

func wiseLetter(w register.Wise) string {
	switch w {
	case register.Linewise:
		return "l"
	case register.Blockwise:
		return "b"
	default:
		return "c"
	}
}

// printable shows control characters in caret notation.
func printable(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == 0x7f:
			b.WriteString("^?")
		case r < 0x20:
			b.WriteByte('^')
			b.WriteRune(r + '@')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// exNormal executes args as Normal mode keys. Without bang the keys are
// remapped. An incomplete command at the end is aborted.
func (e *Engine) exNormal(bang bool, args string) error {
	if args == "" {
		return nil
	}
	if e.depth >= e.cfg.MaxMapDepth {
		return &keymap.RecursiveMappingError{Keys: ":normal " + args, Depth: e.depth}
	}
	e.depth++
	defer func() { e.depth-- }()

	start := e.modes.Current()
	err := e.feed(key.FromText(args), !bang)
	e.abortCommand(start)
	return err
}

// abortCommand drops a partly typed command and leaves every mode
// entered since start, as <Esc> would.
func (e *Engine) abortCommand(start mode.Mode) {
	e.stopTimeout()
	e.mapBuf, e.cmdBuf = nil, nil
	e.suspend = nil
	for i := 0; i < 8 && e.modes.Current() != start; i++ {
		if err := e.escape(); err != nil {
			e.log.Debug("engine %s: abort: %v", e.id, err)
		}
	}
	e.modes.ResetPending()
}

// exLet assigns a register: let @r = expr, or let @r .= expr to append.
func (e *Engine) exLet(_ bool, args string) error {
	s := strings.TrimSpace(args)
	if !strings.HasPrefix(s, "@") || len(s) < 2 {
		return fmt.Errorf("%w: let %s", ErrInvalidArgument, args)
	}
	r, size := utf8.DecodeRuneInString(s[1:])
	rest := strings.TrimSpace(s[1+size:])

	appendMode := false
	switch {
	case strings.HasPrefix(rest, ".="):
		appendMode = true
		rest = rest[2:]
	case strings.HasPrefix(rest, "="):
		rest = rest[1:]
	default:
		return fmt.Errorf("%w: let %s", ErrInvalidArgument, args)
	}

	val, err := e.evaluate(strings.TrimSpace(rest))
	if err != nil {
		return err
	}
	if r == register.LastSearch {
		e.regs.SetLastSearch(val)
		e.motion.SetSearch(val, false)
		return nil
	}
	p := register.Text(val)
	if strings.HasSuffix(val, "\n") {
		p = register.Lines(val)
	}
	return e.regs.Write(r, p, appendMode)
}

func (e *Engine) exNohlsearch(bool, string) error {
	e.highlight = false
	return nil
}

func (e *Engine) exUndo(bool, string) error {
	return e.undo(1)
}

func (e *Engine) exRedo(bool, string) error {
	return e.redo(1)
}

// option is a :set option.
type option struct {
	name, short string
	boolean     bool
	get         func(e *Engine) string
	set         func(e *Engine, v string) error
}

var options = []option{
	{
		name: "timeout", short: "to", boolean: true,
		get: func(e *Engine) string { return strconv.FormatBool(e.cfg.Timeout) },
		set: func(e *Engine, v string) error { e.cfg.Timeout = v == "true"; return nil },
	},
	{
		name: "timeoutlen", short: "tm",
		get: func(e *Engine) string { return strconv.FormatInt(e.cfg.TimeoutLen.Milliseconds(), 10) },
		set: func(e *Engine, v string) error {
			n, err := positive(v)
			e.cfg.TimeoutLen = time.Duration(n) * time.Millisecond
			return err
		},
	},
	{
		name: "maxmapdepth", short: "mmd",
		get: func(e *Engine) string { return strconv.Itoa(e.cfg.MaxMapDepth) },
		set: func(e *Engine, v string) error {
			n, err := positive(v)
			e.cfg.MaxMapDepth = n
			return err
		},
	},
	{
		name: "shiftwidth", short: "sw",
		get: func(e *Engine) string { return strconv.Itoa(e.cfg.ShiftWidth) },
		set: func(e *Engine, v string) error {
			n, err := positive(v)
			e.cfg.ShiftWidth = n
			return err
		},
	},
	{
		name: "expandtab", short: "et", boolean: true,
		get: func(e *Engine) string { return strconv.FormatBool(e.cfg.ExpandTab) },
		set: func(e *Engine, v string) error { e.cfg.ExpandTab = v == "true"; return nil },
	},
	{
		name: "clipboard", short: "cb",
		get: func(e *Engine) string { return e.cfg.Clipboard.String() },
		set: func(e *Engine, v string) error {
			opt, err := register.ParseClipboardOption(v)
			if err != nil {
				return err
			}
			e.cfg.Clipboard = opt
			e.regs.SetClipboardOption(opt)
			return nil
		},
	},
}

// positive parses a :set number; the current value is kept on error.
func positive(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: number required: %s", ErrInvalidArgument, v)
	}
	return n, nil
}

func lookupOption(name string) (option, bool) {
	for _, o := range options {
		if name == o.name || name == o.short {
			return o, true
		}
	}
	return option{}, false
}

// exSet sets or shows options.
func (e *Engine) exSet(_ bool, args string) error {
	items := strings.Fields(args)
	if len(items) == 0 {
		for _, o := range options {
			e.notifier.StatusMessage(o.show(e))
		}
		return nil
	}
	for _, item := range items {
		if err := e.setOption(item); err != nil {
			return err
		}
	}
	return nil
}

func (o option) show(e *Engine) string {
	v := o.get(e)
	if !o.boolean {
		return o.name + "=" + v
	}
	if v == "true" {
		return o.name
	}
	return "no" + o.name
}

func (e *Engine) setOption(item string) error {
	name, value, hasValue := strings.Cut(item, "=")
	query := strings.HasSuffix(name, "?")
	name = strings.TrimSuffix(name, "?")

	o, ok := lookupOption(name)
	if !ok {
		for _, prefix := range []string{"no", "inv"} {
			if base, found := strings.CutPrefix(name, prefix); found {
				if bo, ok := lookupOption(base); ok && bo.boolean && !hasValue && !query {
					v := "false"
					if prefix == "inv" && bo.get(e) == "false" {
						v = "true"
					}
					return bo.set(e, v)
				}
			}
		}
		return fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}

	switch {
	case query, !hasValue && !o.boolean:
		e.notifier.StatusMessage(o.show(e))
		return nil
	case !hasValue:
		return o.set(e, "true")
	case o.boolean:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, item)
	}

	old := o.get(e)
	if err := o.set(e, value); err != nil {
		if rerr := o.set(e, old); rerr != nil {
			e.log.Warn("engine %s: restoring %s: %v", e.id, o.name, rerr)
		}
		return err
	}
	return nil
}
