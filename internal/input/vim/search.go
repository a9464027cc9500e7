package vim

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// compilePattern compiles a search pattern. Patterns that are not valid
// regular expressions are searched literally.
func compilePattern(pattern string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}
	return re
}

// runeOffsets maps every byte index of s (and len(s)) to a rune offset.
func runeOffsets(s string) []int {
	offs := make([]int, len(s)+1)
	n := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < size; j++ {
			offs[i+j] = n
		}
		i += size
		n++
	}
	offs[len(s)] = n
	return offs
}

// Search returns the start of the count-th match of pattern after (or
// before) from, wrapping around the buffer end.
func Search(s *Snapshot, from int, pattern string, forward bool, count int) (int, error) {
	str := string(s.text)
	re := compilePattern(pattern)
	locs := re.FindAllStringIndex(str, -1)
	if len(locs) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrPatternNotFound, pattern)
	}

	offs := runeOffsets(str)
	starts := make([]int, 0, len(locs))
	for _, loc := range locs {
		starts = append(starts, offs[loc[0]])
	}

	off := from
	for i := 0; i < Effective(count); i++ {
		off = nextMatch(starts, off, forward)
	}
	return off, nil
}

func nextMatch(starts []int, from int, forward bool) int {
	if forward {
		for _, st := range starts {
			if st > from {
				return st
			}
		}
		return starts[0]
	}
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] < from {
			return starts[i]
		}
	}
	return starts[len(starts)-1]
}
