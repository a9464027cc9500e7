package key

import (
	"fmt"
	"unicode"
)

// Event represents a single key press.
//
// Events are comparable values; two events describing the same key press
// compare equal with ==. Construct them with NewRuneEvent or NewSpecialEvent
// so they are normalized.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a normalized key event for a character.
//
// Shift is folded into the character itself, and Ctrl chords on letters use
// the lowercase letter, so <C-X> and <C-x> are the same event. Control
// characters map onto their named keys or Ctrl chords.
func NewRuneEvent(r rune, mods Modifier) Event {
	switch r {
	case '\r', '\n':
		return NewSpecialEvent(KeyEnter, mods)
	case '\t':
		return NewSpecialEvent(KeyTab, mods)
	case 0x1b:
		return NewSpecialEvent(KeyEscape, mods)
	case 0x7f:
		return NewSpecialEvent(KeyBackspace, mods)
	}
	if r >= 1 && r <= 26 {
		r = 'a' + r - 1
		mods = mods.With(ModCtrl)
	}
	if mods.HasShift() && !mods.HasCtrl() {
		r = unicode.ToUpper(r)
	}
	mods = mods.Without(ModShift)
	if mods.HasCtrl() {
		r = unicode.ToLower(r)
	}
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// Char is shorthand for an unmodified character event.
func Char(r rune) Event {
	return NewRuneEvent(r, ModNone)
}

// Special is shorthand for an unmodified special key event.
func Special(k Key) Event {
	return NewSpecialEvent(k, ModNone)
}

// Ctrl is shorthand for a Ctrl chord on a character.
func Ctrl(r rune) Event {
	return NewRuneEvent(r, ModCtrl)
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is an unmodified printable character, i.e.
// something that would be typed into the buffer.
func (e Event) IsChar() bool {
	return e.IsRune() && !e.IsModified() && unicode.IsPrint(e.Rune)
}

// IsModified returns true if Ctrl, Alt or Meta is pressed.
func (e Event) IsModified() bool {
	return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
}

// IsDigit reports whether the event is an unmodified ASCII digit.
func (e Event) IsDigit() bool {
	return e.IsRune() && !e.IsModified() && e.Rune >= '0' && e.Rune <= '9'
}

// IsSpecial returns true if this is a special (non-character) key.
func (e Event) IsSpecial() bool {
	return e.Key.IsSpecial()
}

// IsEscape returns true if this is the Escape key (with no modifiers).
// <C-[> is delivered by terminals as Escape and is treated the same.
func (e Event) IsEscape() bool {
	return (e.Key == KeyEscape && e.Modifiers == ModNone) ||
		(e.Key == KeyRune && e.Rune == '[' && e.Modifiers == ModCtrl)
}

// IsEnter returns true if this is the Enter key (with no modifiers).
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter && e.Modifiers == ModNone
}

// IsBackspace returns true if this is Backspace (with no modifiers).
func (e Event) IsBackspace() bool {
	return e.Key == KeyBackspace && e.Modifiers == ModNone
}

// IsTab returns true if this is Tab (with no modifiers).
func (e Event) IsTab() bool {
	return e.Key == KeyTab && e.Modifiers == ModNone
}

// CharValue returns the character an event contributes when it is used as a
// character argument (f{char}, r{char}, insert mode). Tab and Enter become
// their control characters.
func (e Event) CharValue() (rune, bool) {
	switch {
	case e.IsTab():
		return '\t', true
	case e.IsEnter():
		return '\n', true
	case e.IsRune() && !e.IsModified():
		return e.Rune, true
	}
	return 0, false
}

// String returns the canonical notation of the event.
func (e Event) String() string {
	return Encode(e)
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("key.Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}
