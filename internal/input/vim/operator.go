package vim

import (
	"strings"
	"unicode"
)

// OperatorKind identifies what an operator does to its range.
type OperatorKind uint8

const (
	OpDelete OperatorKind = iota
	OpChange
	OpYank
	OpShiftRight
	OpShiftLeft
	OpLower
	OpUpper
	OpToggleCase
)

var operatorNames = [...]string{
	OpDelete:     "delete",
	OpChange:     "change",
	OpYank:       "yank",
	OpShiftRight: "shift-right",
	OpShiftLeft:  "shift-left",
	OpLower:      "lowercase",
	OpUpper:      "uppercase",
	OpToggleCase: "toggle-case",
}

// String returns the operator name.
func (k OperatorKind) String() string {
	if int(k) < len(operatorNames) {
		return operatorNames[k]
	}
	return "unknown"
}

// Operator represents a Vim operator command.
// Operators are commands that perform an action on a range of text
// defined by a motion or text object.
type Operator struct {
	Kind OperatorKind

	// Keys is the notation that triggers this operator (e.g., "d", "gU").
	Keys string

	// LineKeys select the current lines when typed after Keys, as the
	// second d of dd.
	LineKeys []string

	// ChangesText indicates if this operator modifies the buffer.
	ChangesText bool

	// EntersInsert indicates if this operator enters insert mode after.
	EntersInsert bool

	// Linewise operators always act on whole lines.
	Linewise bool

	// SkipShortRows drops block rows that end before the block.
	SkipShortRows bool
}

// Name returns the operator name.
func (o *Operator) Name() string {
	return o.Kind.String()
}

// Standard Vim operators.
var (
	Delete = &Operator{
		Kind: OpDelete, Keys: "d", LineKeys: []string{"d"},
		ChangesText: true,
	}
	Change = &Operator{
		Kind: OpChange, Keys: "c", LineKeys: []string{"c"},
		ChangesText: true, EntersInsert: true, SkipShortRows: true,
	}
	Yank = &Operator{
		Kind: OpYank, Keys: "y", LineKeys: []string{"y"},
	}
	ShiftRight = &Operator{
		Kind: OpShiftRight, Keys: ">", LineKeys: []string{">"},
		ChangesText: true, Linewise: true,
	}
	ShiftLeft = &Operator{
		Kind: OpShiftLeft, Keys: "<lt>", LineKeys: []string{"<lt>"},
		ChangesText: true, Linewise: true,
	}
	Lowercase = &Operator{
		Kind: OpLower, Keys: "gu", LineKeys: []string{"u", "gu"},
		ChangesText: true, SkipShortRows: true,
	}
	Uppercase = &Operator{
		Kind: OpUpper, Keys: "gU", LineKeys: []string{"U", "gU"},
		ChangesText: true, SkipShortRows: true,
	}
	ToggleCase = &Operator{
		Kind: OpToggleCase, Keys: "g~", LineKeys: []string{"~", "g~"},
		ChangesText: true, SkipShortRows: true,
	}
)

// Operators returns the built-in operators.
func Operators() []*Operator {
	return []*Operator{
		Delete, Change, Yank,
		ShiftRight, ShiftLeft,
		Lowercase, Uppercase, ToggleCase,
	}
}

// transform returns the case mapping of a case operator.
func (o *Operator) transform() func(string) string {
	switch o.Kind {
	case OpLower:
		return strings.ToLower
	case OpUpper:
		return strings.ToUpper
	case OpToggleCase:
		return func(s string) string {
			return strings.Map(func(r rune) rune {
				if unicode.IsUpper(r) {
					return unicode.ToLower(r)
				}
				return unicode.ToUpper(r)
			}, s)
		}
	default:
		return nil
	}
}
