package input

import (
	"strings"
	"unicode"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
)

// cmdline is the line edited in CommandLine mode: an ex command, a
// search pattern or an expression.
type cmdline struct {
	prompt rune
	text   []rune

	// done runs with the text when <CR> accepts the line.
	done func(text string) error

	// parent is the line this one was opened from, as <C-r>= inside an
	// ex command.
	parent *cmdline
}

// String returns the prompt followed by the text.
func (c *cmdline) String() string {
	return string(c.prompt) + string(c.text)
}

// openCmdline enters CommandLine mode. done runs after the mode is left.
func (e *Engine) openCmdline(prompt rune, done func(text string) error) error {
	e.cmdline = &cmdline{prompt: prompt, done: done, parent: e.cmdline}
	e.modes.Push(mode.CommandLineMode)
	return nil
}

// closeCmdline leaves CommandLine mode and returns the closed line.
func (e *Engine) closeCmdline() *cmdline {
	c := e.cmdline
	if c != nil {
		e.cmdline = c.parent
	}
	if e.modes.Current().Kind == mode.CommandLine {
		e.modes.Pop()
	}
	return c
}

// cancelCmdline abandons the line and the command that opened it.
func (e *Engine) cancelCmdline() error {
	e.closeCmdline()
	if !e.modes.Current().IsTyping() {
		e.modes.ResetPending()
	}
	e.settle()
	return nil
}

// cmdlineKey edits the command line.
func (e *Engine) cmdlineKey(ev key.Event) error {
	c := e.cmdline
	if c == nil {
		e.modes.Pop()
		return nil
	}

	switch {
	case ev.IsEnter():
		e.closeCmdline()
		return c.done(string(c.text))
	case ev.IsBackspace(), ev == key.Ctrl('h'):
		if len(c.text) == 0 {
			return e.cancelCmdline()
		}
		c.text = c.text[:len(c.text)-1]
	case ev == key.Ctrl('u'):
		c.text = nil
	case ev == key.Ctrl('w'):
		i := len(c.text)
		for i > 0 && unicode.IsSpace(c.text[i-1]) {
			i--
		}
		if i > 0 {
			cls := wordClass(c.text[i-1])
			for i > 0 && !unicode.IsSpace(c.text[i-1]) && wordClass(c.text[i-1]) == cls {
				i--
			}
		}
		c.text = c.text[:i]
	case ev == key.Ctrl('r'):
		e.suspendFor(key.Sequence{ev}, false, func(next key.Event) error {
			r, ok := next.CharValue()
			if !ok {
				return nil
			}
			if err := validRegister(r); err != nil {
				return err
			}
			if p, ok := e.regs.Read(r); ok {
				text := strings.TrimSuffix(p.Text, "\n")
				c.text = append(c.text, []rune(strings.ReplaceAll(text, "\n", "\r"))...)
			}
			return nil
		})
	case ev == key.Ctrl('v'):
		e.suspendFor(key.Sequence{ev}, true, func(next key.Event) error {
			if next.IsEscape() {
				c.text = append(c.text, 0x1b)
			} else if r, ok := next.CharValue(); ok {
				c.text = append(c.text, r)
			}
			return nil
		})
	default:
		if r, ok := ev.CharValue(); ok {
			c.text = append(c.text, r)
		}
	}
	return nil
}
