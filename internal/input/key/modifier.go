package key

import "strings"

// Modifier is a set of modifier keys held with a key.
type Modifier uint8

// Bit 0 is unused.
const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
	ModAlt   Modifier = 1 << 3 // Option on macOS
	ModMeta  Modifier = 1 << 4 // Cmd on macOS, Win elsewhere
)

// modifierInfo describes one modifier. The table order is the order of
// both String and notation prefixes.
type modifierInfo struct {
	mod     Modifier
	display string
	letter  byte // inside <...>
}

var modifierTable = []modifierInfo{
	{ModCtrl, "Ctrl", 'C'},
	{ModAlt, "Alt", 'A'},
	{ModMeta, "Meta", 'D'},
	{ModShift, "Shift", 'S'},
}

// modifierNames maps lower-case names and notation letters to modifiers.
// As in Vim, the M- prefix is Alt; Cmd and Super are D-.
var modifierNames = map[string]Modifier{
	"c": ModCtrl, "ctrl": ModCtrl, "control": ModCtrl,
	"a": ModAlt, "m": ModAlt, "alt": ModAlt, "opt": ModAlt, "option": ModAlt,
	"s": ModShift, "shift": ModShift,
	"d": ModMeta, "meta": ModMeta, "cmd": ModMeta,
	"command": ModMeta, "super": ModMeta, "win": ModMeta,
}

// Has reports whether m holds any modifier of mod.
func (m Modifier) Has(mod Modifier) bool { return m&mod != 0 }

func (m Modifier) HasShift() bool { return m.Has(ModShift) }
func (m Modifier) HasCtrl() bool  { return m.Has(ModCtrl) }
func (m Modifier) HasAlt() bool   { return m.Has(ModAlt) }
func (m Modifier) HasMeta() bool  { return m.Has(ModMeta) }

// With returns m plus mod.
func (m Modifier) With(mod Modifier) Modifier { return m | mod }

// Without returns m minus mod.
func (m Modifier) Without(mod Modifier) Modifier { return m &^ mod }

// String returns the display form, such as "Ctrl+Alt".
func (m Modifier) String() string {
	var names []string
	for _, info := range modifierTable {
		if m.Has(info.mod) {
			names = append(names, info.display)
		}
	}
	return strings.Join(names, "+")
}

// notationPrefix returns the canonical "C-A-D-S-" prefix of <...> notation.
func (m Modifier) notationPrefix() string {
	var b strings.Builder
	for _, info := range modifierTable {
		if m.Has(info.mod) {
			b.WriteByte(info.letter)
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ModifierFromName returns the modifier called name in any case, or
// ModNone.
func ModifierFromName(name string) Modifier {
	return modifierNames[strings.ToLower(name)]
}

// isNotationModifier reports whether c is a modifier letter accepted
// inside <...>.
func isNotationModifier(c byte) bool {
	return ModifierFromName(string(c)) != ModNone
}
