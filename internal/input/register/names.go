package register

// Kind categorizes registers by their behavior.
type Kind uint8

const (
	// KindInvalid is not a register.
	KindInvalid Kind = iota

	// KindNamed is a named register (a-z, A-Z).
	KindNamed

	// KindLastYank is the yank register (0).
	KindLastYank

	// KindNumbered is a numbered delete register (1-9).
	KindNumbered

	// KindUnnamed is the default register (").
	KindUnnamed

	// KindSmallDelete is the small delete register (-).
	KindSmallDelete

	// KindBlackHole is the black hole register (_).
	KindBlackHole

	// KindLastInserted is the last inserted text register (.).
	KindLastInserted

	// KindCommand is the last command-line register (:).
	KindCommand

	// KindSearch is the last search pattern register (/).
	KindSearch

	// KindFileName is the current file name register (%).
	KindFileName

	// KindClipboard is a system clipboard register (+ or *).
	KindClipboard

	// KindExpression is the expression register (=).
	KindExpression
)

// Special register names.
const (
	Unnamed      = '"'
	LastYank     = '0'
	SmallDelete  = '-'
	BlackHole    = '_'
	LastInserted = '.'
	LastCommand  = ':'
	LastSearch   = '/'
	FileName     = '%'
	Clipboard    = '+'
	Selection    = '*'
	Expression   = '='
)

// Classify returns the kind of the named register.
func Classify(name rune) Kind {
	switch {
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z':
		return KindNamed
	case name == '0':
		return KindLastYank
	case name >= '1' && name <= '9':
		return KindNumbered
	}

	switch name {
	case Unnamed:
		return KindUnnamed
	case SmallDelete:
		return KindSmallDelete
	case BlackHole:
		return KindBlackHole
	case LastInserted:
		return KindLastInserted
	case LastCommand:
		return KindCommand
	case LastSearch:
		return KindSearch
	case FileName:
		return KindFileName
	case Clipboard, Selection:
		return KindClipboard
	case Expression:
		return KindExpression
	}
	return KindInvalid
}

// IsValid returns true if name is a register.
func IsValid(name rune) bool {
	return Classify(name) != KindInvalid
}

// IsReadOnly returns true for registers the user cannot write directly.
func IsReadOnly(name rune) bool {
	switch Classify(name) {
	case KindLastInserted, KindCommand, KindSearch, KindFileName, KindExpression:
		return true
	}
	return false
}

// IsShared returns true for the process-wide registers (a-z and 0-9).
func IsShared(name rune) bool {
	switch Classify(name) {
	case KindNamed, KindLastYank, KindNumbered:
		return true
	}
	return false
}

// IsAppend returns true for the uppercase append registers.
func IsAppend(name rune) bool {
	return name >= 'A' && name <= 'Z'
}

// IsRecordable returns true if a macro can be recorded into name.
func IsRecordable(name rune) bool {
	switch Classify(name) {
	case KindNamed, KindLastYank, KindNumbered, KindUnnamed:
		return true
	}
	return false
}

// Normalize folds uppercase append registers onto their lowercase target.
func Normalize(name rune) rune {
	if IsAppend(name) {
		return name - 'A' + 'a'
	}
	return name
}

// displayOrder is the order registers are listed in.
const displayOrder = `"0123456789abcdefghijklmnopqrstuvwxyz-.:%/+*=`
