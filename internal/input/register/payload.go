package register

import (
	"strings"

	"github.com/dshills/modalkit/internal/input/key"
)

// Wise describes how register text was captured and how it is put back.
type Wise uint8

const (
	// Charwise text is inserted at the caret.
	Charwise Wise = iota

	// Linewise text always ends in a newline and is inserted as whole lines.
	Linewise

	// Blockwise text holds one row per line of a rectangular selection.
	Blockwise
)

// String returns the wise-type name.
func (w Wise) String() string {
	switch w {
	case Linewise:
		return "line"
	case Blockwise:
		return "block"
	default:
		return "char"
	}
}

// ParseWise converts a wise-type name back into a Wise.
func ParseWise(s string) (Wise, bool) {
	switch strings.ToLower(s) {
	case "char", "c", "":
		return Charwise, true
	case "line", "l":
		return Linewise, true
	case "block", "b":
		return Blockwise, true
	}
	return Charwise, false
}

// Payload is the content of a register.
type Payload struct {
	// Text is the register text. For recorded macros it is the key notation.
	Text string

	// Wise is the wise-type of Text.
	Wise Wise

	// Keys holds recorded keystrokes, if any.
	Keys key.Sequence
}

// Text returns a character-wise payload.
func Text(s string) Payload {
	return Payload{Text: s}
}

// Lines returns a line-wise payload.
func Lines(s string) Payload {
	return Payload{Text: ensureNewline(s), Wise: Linewise}
}

// FromKeys returns the payload of a recorded macro.
func FromKeys(keys key.Sequence) Payload {
	return Payload{Text: keys.String(), Keys: keys.Clone()}
}

// IsEmpty reports whether the payload holds nothing.
func (p Payload) IsEmpty() bool {
	return p.Text == "" && len(p.Keys) == 0
}

// Sequence returns the keys executed when the register is played as a
// macro. Registers without recorded keys are typed literally.
func (p Payload) Sequence() key.Sequence {
	if p.Keys != nil {
		return p.Keys.Clone()
	}
	return key.FromText(p.Text)
}

// Rows splits block-wise text into its rows.
func (p Payload) Rows() []string {
	return strings.Split(strings.TrimSuffix(p.Text, "\n"), "\n")
}

// normalize enforces the line-wise trailing newline.
func (p Payload) normalize() Payload {
	if p.Wise == Linewise {
		p.Text = ensureNewline(p.Text)
	}
	p.Keys = p.Keys.Clone()
	return p
}

// appendPayload concatenates add onto old. Character-wise operands stay
// character-wise, block onto block stays block-wise, and anything involving
// a line-wise operand becomes line-wise.
func appendPayload(old, add Payload) Payload {
	var out Payload
	switch {
	case old.Wise == Linewise || add.Wise == Linewise:
		out.Wise = Linewise
		out.Text = ensureNewline(old.Text) + ensureNewline(add.Text)
	case old.Wise == Blockwise && add.Wise == Blockwise:
		out.Wise = Blockwise
		out.Text = ensureNewline(old.Text) + add.Text
	case old.Wise == Blockwise || add.Wise == Blockwise:
		out.Wise = Blockwise
		out.Text = old.Text + add.Text
	default:
		out.Text = old.Text + add.Text
	}

	if old.Keys != nil || add.Keys != nil {
		out.Keys = old.Sequence().Concat(add.Sequence())
		out.Text = out.Keys.String()
	}
	return out
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
