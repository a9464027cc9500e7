package key

import "strings"

// Sequence is an ordered series of key events, such as "gg", "diw" or a
// recorded macro.
type Sequence []Event

// String returns the canonical notation of the whole sequence.
func (s Sequence) String() string {
	var sb strings.Builder
	for _, e := range s {
		sb.WriteString(Encode(e))
	}
	return sb.String()
}

// Equal returns true if two sequences contain the same events.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i, e := range s {
		if e != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix returns true if this sequence starts with the given prefix.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)].Equal(prefix)
}

// Clone returns a copy that shares no storage with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Concat returns a new sequence holding s followed by other.
func (s Sequence) Concat(other Sequence) Sequence {
	out := make(Sequence, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// AsText returns the characters the sequence would type, if it consists
// only of unmodified characters, Tab and Enter.
func (s Sequence) AsText() (string, bool) {
	var sb strings.Builder
	for _, e := range s {
		r, ok := e.CharValue()
		if !ok {
			return "", false
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}

// FromText converts literal text into the keys that would type it.
// Unlike Decode, '<' is never treated as notation; this is how register
// contents are executed as a macro.
func FromText(text string) Sequence {
	out := make(Sequence, 0, len(text))
	for _, r := range text {
		out = append(out, NewRuneEvent(r, ModNone))
	}
	return out
}

// FromCount returns the digit keys that type n. Zero yields nothing.
func FromCount(n int) Sequence {
	if n <= 0 {
		return nil
	}
	var digits Sequence
	for ; n > 0; n /= 10 {
		digits = append(Sequence{Char(rune('0' + n%10))}, digits...)
	}
	return digits
}
