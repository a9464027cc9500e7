package mode

import (
	"fmt"
	"strings"
)

// Set is a set of mapping modes, used for command and mapping
// applicability. Composite modes share the set of their base mode.
type Set uint8

const (
	SetNormal Set = 1 << iota
	SetVisual
	SetSelect
	SetOperatorPending
	SetInsert
	SetCommandLine

	// SetNone matches no mode.
	SetNone Set = 0

	// SetNVO is the set used by :map.
	SetNVO = SetNormal | SetVisual | SetSelect | SetOperatorPending

	// SetAll matches every mode.
	SetAll = SetNVO | SetInsert | SetCommandLine
)

// SetOf returns the mapping set a mode belongs to.
func SetOf(m Mode) Set {
	switch m.Kind {
	case Normal, InsertNormal:
		return SetNormal
	case Visual, InsertVisual:
		return SetVisual
	case Select, InsertSelect:
		return SetSelect
	case OperatorPending:
		return SetOperatorPending
	case Insert, Replace:
		return SetInsert
	case CommandLine:
		return SetCommandLine
	}
	return SetNone
}

// Contains reports whether m is in the set.
func (s Set) Contains(m Mode) bool {
	return s&SetOf(m) != 0
}

// Has reports whether s includes every mode of other.
func (s Set) Has(other Set) bool {
	return s&other == other
}

// Overlaps reports whether s and other share a mode.
func (s Set) Overlaps(other Set) bool {
	return s&other != 0
}

// String returns the mapping-command letters of the set, e.g. "nvo".
func (s Set) String() string {
	if s == SetNone {
		return ""
	}
	var sb strings.Builder
	for _, e := range setLetters {
		if s&e.set != 0 {
			sb.WriteByte(e.letter)
		}
	}
	return sb.String()
}

var setLetters = []struct {
	letter byte
	set    Set
}{
	{'n', SetNormal},
	{'x', SetVisual},
	{'s', SetSelect},
	{'o', SetOperatorPending},
	{'i', SetInsert},
	{'c', SetCommandLine},
}

// ParseSet parses the mode prefix of a mapping command, such as "n" in
// :nmap or "" in :map.
func ParseSet(prefix string) (Set, error) {
	switch prefix {
	case "":
		return SetNVO, nil
	case "n":
		return SetNormal, nil
	case "v":
		return SetVisual | SetSelect, nil
	case "x":
		return SetVisual, nil
	case "s":
		return SetSelect, nil
	case "o":
		return SetOperatorPending, nil
	case "i":
		return SetInsert, nil
	case "c":
		return SetCommandLine, nil
	case "!":
		return SetInsert | SetCommandLine, nil
	}

	var set Set
	for i := 0; i < len(prefix); i++ {
		found := false
		for _, e := range setLetters {
			if prefix[i] == e.letter {
				set |= e.set
				found = true
			}
		}
		if prefix[i] == 'v' {
			set |= SetVisual | SetSelect
			found = true
		}
		if !found {
			return SetNone, fmt.Errorf("unknown mode letter %q", prefix[i])
		}
	}
	return set, nil
}
