package vim

import "math"

// MaxColumn is the desired column after $: the end of every line.
const MaxColumn = math.MaxInt32

// State carries what motions remember between commands: the desired
// column for vertical moves, the last f/F/t/T and the last search.
// Each engine owns one State.
type State struct {
	// Curswant is the column j and k try to keep.
	Curswant int

	find   findState
	search searchState
}

type findState struct {
	char    rune
	forward bool
	till    bool
	valid   bool
}

type searchState struct {
	pattern  string
	backward bool
	valid    bool
}

// NewState creates an empty motion state.
func NewState() *State {
	return &State{}
}

// UpdateColumn makes the column of caret the desired column.
func (s *State) UpdateColumn(snap *Snapshot, caret int) {
	s.Curswant = snap.Column(caret)
}

// LastFind returns the last character search.
func (s *State) LastFind() (char rune, forward, till, ok bool) {
	return s.find.char, s.find.forward, s.find.till, s.find.valid
}

// SetSearch records the last search pattern and its direction.
func (s *State) SetSearch(pattern string, backward bool) {
	s.search = searchState{pattern: pattern, backward: backward, valid: true}
}

// LastSearch returns the last search pattern and its direction.
func (s *State) LastSearch() (pattern string, backward, ok bool) {
	return s.search.pattern, s.search.backward, s.search.valid
}
