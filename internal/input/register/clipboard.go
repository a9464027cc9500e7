package register

import (
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// ClipboardBridge abstracts system clipboard access for the + and *
// registers.
type ClipboardBridge interface {
	// Read returns the clipboard text. ok is false when it is empty or
	// unavailable.
	Read() (text string, wise Wise, ok bool, err error)

	// Write replaces the clipboard text.
	Write(text string, wise Wise) error
}

// SystemClipboard is a ClipboardBridge backed by the OS clipboard.
type SystemClipboard struct {
	mu       sync.Mutex
	lastText string
	lastWise Wise
}

// NewSystemClipboard returns the OS clipboard bridge.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Available reports whether the platform has a usable clipboard tool.
func (c *SystemClipboard) Available() bool {
	return !clipboard.Unsupported
}

// Read returns the OS clipboard text. If it is unchanged since the last
// Write, the wise-type of that write is kept; otherwise text ending in a
// newline is treated as line-wise.
func (c *SystemClipboard) Read() (string, Wise, bool, error) {
	if clipboard.Unsupported {
		return "", Charwise, false, nil
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", Charwise, false, err
	}
	if text == "" {
		return "", Charwise, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.lastText {
		return text, c.lastWise, true, nil
	}
	return text, guessWise(text), true, nil
}

// Write sets the OS clipboard text.
func (c *SystemClipboard) Write(text string, wise Wise) error {
	if clipboard.Unsupported {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastText = text
	c.lastWise = wise
	c.mu.Unlock()
	return nil
}

// MemoryClipboard is an in-process ClipboardBridge for headless sessions
// and tests.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
	wise Wise
}

// Read returns the stored text.
func (c *MemoryClipboard) Read() (string, Wise, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.wise, c.text != "", nil
}

// Write stores text.
func (c *MemoryClipboard) Write(text string, wise Wise) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.wise = wise
	return nil
}

func guessWise(text string) Wise {
	if strings.HasSuffix(text, "\n") {
		return Linewise
	}
	return Charwise
}

// ClipboardOption mirrors Vim's 'clipboard' setting.
type ClipboardOption uint8

const (
	// ClipboardNone keeps the unnamed register private.
	ClipboardNone ClipboardOption = iota

	// ClipboardUnnamed makes * the default register.
	ClipboardUnnamed

	// ClipboardUnnamedPlus makes + the default register.
	ClipboardUnnamedPlus
)

// ParseClipboardOption parses a 'clipboard' value such as "unnamed" or
// "unnamed,unnamedplus". When both are given, unnamedplus wins.
func ParseClipboardOption(s string) (ClipboardOption, error) {
	opt := ClipboardNone
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "":
		case "unnamed":
			if opt == ClipboardNone {
				opt = ClipboardUnnamed
			}
		case "unnamedplus":
			opt = ClipboardUnnamedPlus
		default:
			return ClipboardNone, ErrInvalidClipboardOption
		}
	}
	return opt, nil
}

// String returns the option value.
func (o ClipboardOption) String() string {
	switch o {
	case ClipboardUnnamed:
		return "unnamed"
	case ClipboardUnnamedPlus:
		return "unnamedplus"
	default:
		return ""
	}
}
