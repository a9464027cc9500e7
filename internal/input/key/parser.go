package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse reads one key as written in configuration files: a character
// ("a", "@"), a key name ("Enter", "space"), notation ("<C-s>", "<S-Tab>")
// or modifiers joined with '+' ("Ctrl+S", "Ctrl+Shift+Tab").
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return Event{}, ErrEmptySpec
	case len(spec) > 1 && spec[0] == '<':
		seq, err := Decode(spec)
		if err != nil {
			return Event{}, err
		}
		if len(seq) != 1 {
			return Event{}, fmt.Errorf("%w: %q is not a single key", ErrInvalidSpec, spec)
		}
		return seq[0], nil
	}

	var mods Modifier
	name := spec
	if i := strings.LastIndexByte(spec[:len(spec)-1], '+'); i >= 0 {
		for _, part := range strings.Split(spec[:i], "+") {
			mod := ModifierFromName(strings.TrimSpace(part))
			if mod == ModNone {
				return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, part)
			}
			mods = mods.With(mod)
		}
		name = strings.TrimSpace(spec[i+1:])
	}

	if ev, ok := namedEvent(name, mods); ok {
		return ev, nil
	}
	if r, size := utf8.DecodeRuneInString(name); size == len(name) && r != utf8.RuneError {
		return NewRuneEvent(r, mods), nil
	}
	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, name)
}
