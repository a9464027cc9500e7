package mode

// Kind identifies a mode.
type Kind uint8

const (
	// Normal is the default command mode and the floor of the mode stack.
	Normal Kind = iota

	// Insert types text.
	Insert

	// Replace overtypes text.
	Replace

	// Visual extends a selection with motions.
	Visual

	// Select replaces the selection with typed text.
	Select

	// OperatorPending waits for the motion of an operator.
	OperatorPending

	// CommandLine edits an ex command or search pattern.
	CommandLine

	// InsertNormal runs one Normal command from Insert mode.
	InsertNormal

	// InsertVisual is Visual mode entered from InsertNormal.
	InsertVisual

	// InsertSelect is Select mode entered from InsertNormal.
	InsertSelect
)

// SelectionKind is the shape of a Visual or Select selection.
type SelectionKind uint8

const (
	// SelectChar is character-wise selection.
	SelectChar SelectionKind = iota

	// SelectLine is line-wise selection.
	SelectLine

	// SelectBlock is block/column selection.
	SelectBlock
)

// String returns a human-readable selection kind name.
func (s SelectionKind) String() string {
	switch s {
	case SelectChar:
		return "char"
	case SelectLine:
		return "line"
	case SelectBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Mode is the current editing mode. Sel is only meaningful for the
// selection modes.
type Mode struct {
	Kind Kind
	Sel  SelectionKind
}

// Constructors for the common modes.
var (
	NormalMode          = Mode{Kind: Normal}
	InsertMode          = Mode{Kind: Insert}
	ReplaceMode         = Mode{Kind: Replace}
	OperatorPendingMode = Mode{Kind: OperatorPending}
	CommandLineMode     = Mode{Kind: CommandLine}
	InsertNormalMode    = Mode{Kind: InsertNormal}
)

// VisualMode returns Visual mode with the given selection kind.
func VisualMode(sel SelectionKind) Mode {
	return Mode{Kind: Visual, Sel: sel}
}

// SelectMode returns Select mode with the given selection kind.
func SelectMode(sel SelectionKind) Mode {
	return Mode{Kind: Select, Sel: sel}
}

// Standard mode names.
const (
	NameNormal          = "normal"
	NameInsert          = "insert"
	NameReplace         = "replace"
	NameVisual          = "visual"
	NameVisualLine      = "visual-line"
	NameVisualBlock     = "visual-block"
	NameSelect          = "select"
	NameSelectLine      = "select-line"
	NameSelectBlock     = "select-block"
	NameOperatorPending = "operator-pending"
	NameCommandLine     = "command"
	NameInsertNormal    = "insert-normal"
	NameInsertVisual    = "insert-visual"
	NameInsertSelect    = "insert-select"
)

// Name returns the unique mode identifier (e.g., "normal", "visual-line").
func (m Mode) Name() string {
	switch m.Kind {
	case Normal:
		return NameNormal
	case Insert:
		return NameInsert
	case Replace:
		return NameReplace
	case Visual:
		return pick(m.Sel, NameVisual, NameVisualLine, NameVisualBlock)
	case Select:
		return pick(m.Sel, NameSelect, NameSelectLine, NameSelectBlock)
	case OperatorPending:
		return NameOperatorPending
	case CommandLine:
		return NameCommandLine
	case InsertNormal:
		return NameInsertNormal
	case InsertVisual:
		return NameInsertVisual
	case InsertSelect:
		return NameInsertSelect
	default:
		return "unknown"
	}
}

func pick(sel SelectionKind, char, line, block string) string {
	switch sel {
	case SelectLine:
		return line
	case SelectBlock:
		return block
	default:
		return char
	}
}

// String returns the mode name.
func (m Mode) String() string {
	return m.Name()
}

// DisplayName returns a human-readable name for the status line.
func (m Mode) DisplayName() string {
	switch m.Kind {
	case Normal, OperatorPending, CommandLine:
		return ""
	case Insert:
		return "-- INSERT --"
	case Replace:
		return "-- REPLACE --"
	case Visual:
		return pick(m.Sel, "-- VISUAL --", "-- VISUAL LINE --", "-- VISUAL BLOCK --")
	case Select:
		return pick(m.Sel, "-- SELECT --", "-- SELECT LINE --", "-- SELECT BLOCK --")
	case InsertNormal:
		return "-- (insert) --"
	case InsertVisual:
		return pick(m.Sel, "-- (insert) VISUAL --", "-- (insert) VISUAL LINE --", "-- (insert) VISUAL BLOCK --")
	case InsertSelect:
		return pick(m.Sel, "-- (insert) SELECT --", "-- (insert) SELECT LINE --", "-- (insert) SELECT BLOCK --")
	}
	return ""
}

// IsTyping reports whether unmapped printable keys insert text.
func (m Mode) IsTyping() bool {
	return m.Kind == Insert || m.Kind == Replace
}

// IsVisual reports whether m is a Visual mode, including InsertVisual.
func (m Mode) IsVisual() bool {
	return m.Kind == Visual || m.Kind == InsertVisual
}

// IsSelect reports whether m is a Select mode, including InsertSelect.
func (m Mode) IsSelect() bool {
	return m.Kind == Select || m.Kind == InsertSelect
}

// HasSelection reports whether m has an active selection.
func (m Mode) HasSelection() bool {
	return m.IsVisual() || m.IsSelect()
}

// IsNormalLike reports whether keys are read as Normal mode commands.
func (m Mode) IsNormalLike() bool {
	return m.Kind == Normal || m.Kind == InsertNormal
}

// IsSingleCommand reports whether m returns to Insert after one command.
func (m Mode) IsSingleCommand() bool {
	switch m.Kind {
	case InsertNormal, InsertVisual, InsertSelect:
		return true
	}
	return false
}

// CursorStyle returns the cursor style for this mode.
func (m Mode) CursorStyle() CursorStyle {
	switch m.Kind {
	case Insert, CommandLine:
		return CursorBar
	case Replace, OperatorPending:
		return CursorUnderline
	default:
		return CursorBlock
	}
}

// CursorStyle defines the visual appearance of the cursor.
type CursorStyle uint8

const (
	// CursorBlock is a full-cell block cursor (normal mode).
	CursorBlock CursorStyle = iota

	// CursorBar is a thin vertical bar cursor (insert mode).
	CursorBar

	// CursorUnderline is an underline cursor.
	CursorUnderline
)

// String returns a human-readable cursor style name.
func (c CursorStyle) String() string {
	switch c {
	case CursorBlock:
		return "block"
	case CursorBar:
		return "bar"
	case CursorUnderline:
		return "underline"
	default:
		return "unknown"
	}
}
