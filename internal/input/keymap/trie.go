package keymap

import (
	"sort"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
)

// MatchKind is the outcome of feeding keys to a trie.
type MatchKind uint8

const (
	// NoMatch means no entry starts with the keys.
	NoMatch MatchKind = iota

	// Partial means the keys are a strict prefix of entries but complete
	// none themselves. A shorter bound prefix, if any, is the candidate
	// that fires when the timeout expires.
	Partial

	// Ambiguous means the keys complete an entry that is also a prefix of
	// longer ones. The candidate fires when the timeout expires.
	Ambiguous

	// Complete means an entry matched. Consumed tells how many keys it
	// used; the rest must be fed again.
	Complete
)

// String returns the match kind name.
func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "no-match"
	case Partial:
		return "partial"
	case Ambiguous:
		return "ambiguous"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Result is the outcome of Feed.
type Result[T any] struct {
	Kind MatchKind

	// Value is the completed entry, or the candidate of an ambiguous or
	// partial match.
	Value T

	// Consumed is the number of keys Value was bound to. It is zero when
	// a partial match has no candidate.
	Consumed int
}

// Trie maps key sequences to values per mode set. Each node holds at
// most one value for any mode.
//
// Trie is not safe for concurrent use; Registry and Mappings lock
// around it.
type Trie[T any] struct {
	root *trieNode[T]
	size int
}

type trieNode[T any] struct {
	children map[key.Event]*trieNode[T]
	entries  []trieEntry[T]

	// below is the union of the mode sets of all entries strictly below
	// this node.
	below mode.Set
}

type trieEntry[T any] struct {
	modes mode.Set
	value T
}

// NewTrie creates an empty trie.
func NewTrie[T any]() *Trie[T] {
	return &Trie[T]{root: newTrieNode[T]()}
}

func newTrieNode[T any]() *trieNode[T] {
	return &trieNode[T]{children: make(map[key.Event]*trieNode[T])}
}

// Len returns the number of entries.
func (t *Trie[T]) Len() int {
	return t.size
}

// Insert binds seq to v in modes. It fails with a *ConflictError when
// seq is already bound in one of the modes.
func (t *Trie[T]) Insert(seq key.Sequence, modes mode.Set, v T) error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	if modes == mode.SetNone {
		return ErrNoModes
	}

	node := t.root
	for _, ev := range seq {
		child, ok := node.children[ev]
		if !ok {
			child = newTrieNode[T]()
			node.children[ev] = child
		}
		node = child
	}
	for _, e := range node.entries {
		if e.modes.Overlaps(modes) {
			return &ConflictError{Keys: seq.String(), Modes: e.modes & modes}
		}
	}
	node.entries = append(node.entries, trieEntry[T]{modes: modes, value: v})
	t.size++

	node = t.root
	for _, ev := range seq {
		node.below |= modes
		node = node.children[ev]
	}
	return nil
}

// Remove unbinds seq in modes. Entries bound in more modes keep the
// others. It reports whether anything was removed.
func (t *Trie[T]) Remove(seq key.Sequence, modes mode.Set) bool {
	path := make([]*trieNode[T], 0, len(seq)+1)
	node := t.root
	path = append(path, node)
	for _, ev := range seq {
		child, ok := node.children[ev]
		if !ok {
			return false
		}
		node = child
		path = append(path, node)
	}

	removed := false
	kept := node.entries[:0]
	for _, e := range node.entries {
		if e.modes.Overlaps(modes) {
			removed = true
			e.modes &^= modes
			if e.modes == mode.SetNone {
				t.size--
				continue
			}
		}
		kept = append(kept, e)
	}
	node.entries = kept
	if !removed {
		return false
	}

	// Recompute the summaries and prune empty nodes from leaf to root.
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		n.below = mode.SetNone
		for _, c := range n.children {
			n.below |= c.below
			for _, e := range c.entries {
				n.below |= e.modes
			}
		}
		if i > 0 && len(n.entries) == 0 && len(n.children) == 0 {
			delete(path[i-1].children, seq[i-1])
		}
	}
	return true
}

// Clear removes every binding in modes.
func (t *Trie[T]) Clear(modes mode.Set) {
	var seqs []key.Sequence
	t.Walk(func(seq key.Sequence, m mode.Set, _ T) {
		if m.Overlaps(modes) {
			seqs = append(seqs, seq)
		}
	})
	for _, seq := range seqs {
		t.Remove(seq, modes)
	}
}

func (n *trieNode[T]) value(m mode.Mode) (T, bool) {
	for _, e := range n.entries {
		if e.modes.Contains(m) {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

// Lookup returns the value bound to exactly seq in mode m.
func (t *Trie[T]) Lookup(seq key.Sequence, m mode.Mode) (T, bool) {
	node := t.root
	for _, ev := range seq {
		child, ok := node.children[ev]
		if !ok {
			var zero T
			return zero, false
		}
		node = child
	}
	return node.value(m)
}

// Feed matches typed keys against the trie in mode m.
//
// When the keys leave the trie after passing a bound prefix, the
// longest such prefix is returned as Complete with Consumed set to its
// length.
func (t *Trie[T]) Feed(seq key.Sequence, m mode.Mode) Result[T] {
	var best Result[T]
	node := t.root
	for i, ev := range seq {
		child, ok := node.children[ev]
		if !ok {
			return best
		}
		node = child
		if v, ok := node.value(m); ok {
			best = Result[T]{Kind: Complete, Value: v, Consumed: i + 1}
		}
	}

	longer := node.below.Contains(m)
	v, ok := node.value(m)
	switch {
	case ok && longer:
		return Result[T]{Kind: Ambiguous, Value: v, Consumed: len(seq)}
	case ok:
		return Result[T]{Kind: Complete, Value: v, Consumed: len(seq)}
	case longer:
		return Result[T]{Kind: Partial, Value: best.Value, Consumed: best.Consumed}
	default:
		// Only other modes continue from here.
		return best
	}
}

// HasPrefix reports whether some binding in mode m strictly extends seq.
func (t *Trie[T]) HasPrefix(seq key.Sequence, m mode.Mode) bool {
	node := t.root
	for _, ev := range seq {
		child, ok := node.children[ev]
		if !ok {
			return false
		}
		node = child
	}
	return node.below.Contains(m)
}

// Walk calls fn for every binding, in key notation order.
func (t *Trie[T]) Walk(fn func(seq key.Sequence, modes mode.Set, v T)) {
	t.walk(t.root, nil, fn)
}

func (t *Trie[T]) walk(n *trieNode[T], prefix key.Sequence, fn func(key.Sequence, mode.Set, T)) {
	for _, e := range n.entries {
		fn(prefix.Clone(), e.modes, e.value)
	}

	evs := make([]key.Event, 0, len(n.children))
	for ev := range n.children {
		evs = append(evs, ev)
	}
	sort.Slice(evs, func(i, j int) bool {
		return key.Encode(evs[i]) < key.Encode(evs[j])
	})
	for _, ev := range evs {
		t.walk(n.children[ev], append(prefix, ev), fn)
	}
}
