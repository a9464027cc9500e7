package key

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Encode returns the canonical notation for a single key event.
//
// Unmodified printable characters encode as themselves, except '<' which is
// written <lt> and space which is written <Space>. Everything else uses the
// bracketed form with modifiers in C-A-D-S order: <Esc>, <C-x>, <S-Tab>,
// <A-X>, <Char-128>.
func Encode(e Event) string {
	switch e.Key {
	case KeyNone:
		return ""
	case KeyRune:
		name, bracketed := runeNotation(e.Rune)
		if !bracketed && e.Modifiers == ModNone {
			return name
		}
		return "<" + e.Modifiers.notationPrefix() + name + ">"
	default:
		return "<" + e.Modifiers.notationPrefix() + e.Key.String() + ">"
	}
}

func runeNotation(r rune) (string, bool) {
	switch r {
	case '<':
		return "lt", true
	case ' ':
		return "Space", true
	case 0:
		return "Nul", true
	}
	if !unicode.IsPrint(r) {
		return "Char-" + strconv.Itoa(int(r)), true
	}
	return string(r), false
}

// Decode parses key notation into a sequence of events.
//
// Bracketed names are case-insensitive and accept the usual aliases
// (<Return>, <Escape>, <c-X>). A '<' that does not start a valid notation is
// taken literally, matching how mappings treat it.
func Decode(s string) (Sequence, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidSpec, s)
	}

	out := make(Sequence, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '<' {
			if ev, n, ok := decodeBracket(s[i:]); ok {
				out = append(out, ev)
				i += n
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, NewRuneEvent(r, ModNone))
		i += size
	}
	return out, nil
}

// MustDecode decodes notation and panics on error.
// Use only for known-valid notation in initialization code.
func MustDecode(s string) Sequence {
	seq, err := Decode(s)
	if err != nil {
		panic("invalid key notation: " + s + ": " + err.Error())
	}
	return seq
}

// Normalize re-encodes notation in canonical form.
func Normalize(s string) (string, error) {
	seq, err := Decode(s)
	if err != nil {
		return "", err
	}
	return seq.String(), nil
}

// decodeBracket decodes a <...> group at the start of s. It returns the event
// and the number of bytes consumed.
func decodeBracket(s string) (Event, int, bool) {
	end := strings.IndexByte(s[1:], '>')
	if end < 0 {
		return Event{}, 0, false
	}
	end++ // index of '>' in s

	if ev, ok := parseNotation(s[1:end]); ok {
		return ev, end + 1, true
	}

	// <C->> and friends: the first '>' is the key itself.
	if end+1 < len(s) && s[end+1] == '>' {
		if ev, ok := parseNotation(s[1 : end+1]); ok {
			return ev, end + 2, true
		}
	}
	return Event{}, 0, false
}

// parseNotation parses the inside of a <...> group.
func parseNotation(inner string) (Event, bool) {
	if inner == "" {
		return Event{}, false
	}

	var mods Modifier
	rest := inner
	for len(rest) >= 3 && rest[1] == '-' && isNotationModifier(rest[0]) {
		mods = mods.With(ModifierFromName(rest[:1]))
		rest = rest[2:]
	}

	if ev, ok := namedEvent(rest, mods); ok {
		return ev, true
	}
	if lower := strings.ToLower(rest); strings.HasPrefix(lower, "char-") {
		n, err := strconv.ParseInt(rest[len("char-"):], 0, 32)
		if err != nil || n < 0 || !utf8.ValidRune(rune(n)) {
			return Event{}, false
		}
		return NewRuneEvent(rune(n), mods), true
	}
	if mods != ModNone && utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return NewRuneEvent(r, mods), true
	}
	return Event{}, false
}

// namedEvent returns the event of a key name such as "Esc" or "lt".
func namedEvent(name string, mods Modifier) (Event, bool) {
	lower := strings.ToLower(name)
	if k, ok := keyNameMap[lower]; ok {
		return NewSpecialEvent(k, mods), true
	}
	if r, ok := runeNameMap[lower]; ok {
		return NewRuneEvent(r, mods), true
	}
	return Event{}, false
}
