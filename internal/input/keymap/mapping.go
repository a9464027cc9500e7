package keymap

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
)

// Mapping is a user key mapping: typing LHS in one of Modes acts as
// typing RHS.
type Mapping struct {
	LHS key.Sequence
	RHS key.Sequence

	// Modes the mapping applies in.
	Modes mode.Set

	// NoRemap disables mappings while the RHS is executed.
	NoRemap bool

	// Expr mappings evaluate Source and use the result as the RHS.
	Expr   bool
	Source string

	// NoWait fires the mapping at once even when longer mappings exist.
	NoWait bool

	// Silent mappings produce no status message.
	Silent bool

	// Origin says where the mapping was defined, e.g. a file name.
	Origin string
}

// String returns the mapping as :map lists it.
func (m *Mapping) String() string {
	rhs := m.RHS.String()
	if m.Expr {
		rhs = m.Source
	}
	if rhs == "" {
		rhs = "<Nop>"
	}
	flag := " "
	if m.NoRemap {
		flag = "*"
	}
	return fmt.Sprintf("%-3s %-12s %s %s", m.Modes, m.LHS, flag, rhs)
}

// Clone returns a copy that shares no storage with m.
func (m *Mapping) Clone() *Mapping {
	c := *m
	c.LHS = m.LHS.Clone()
	c.RHS = m.RHS.Clone()
	return &c
}

// Mappings is the user mapping table of an engine. It is consulted
// before the built-in commands.
type Mappings struct {
	mu   sync.RWMutex
	trie *Trie[*Mapping]
}

// NewMappings creates an empty mapping table.
func NewMappings() *Mappings {
	return &Mappings{trie: NewTrie[*Mapping]()}
}

// Map adds m, replacing existing mappings of the same keys in its modes.
// With unique set it fails with ErrMappingExists instead.
func (t *Mappings) Map(m *Mapping, unique bool) error {
	if len(m.LHS) == 0 {
		return ErrEmptySequence
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if unique {
		for _, md := range modesOf(m.Modes) {
			if _, ok := t.trie.Lookup(m.LHS, md); ok {
				return fmt.Errorf("%w: %s", ErrMappingExists, m.LHS)
			}
		}
	}
	t.trie.Remove(m.LHS, m.Modes)
	return t.trie.Insert(m.LHS, m.Modes, m.Clone())
}

// Unmap removes the mapping of lhs in modes.
func (t *Mappings) Unmap(lhs key.Sequence, modes mode.Set) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.trie.Remove(lhs, modes) {
		return fmt.Errorf("%w: %s", ErrNoSuchMapping, lhs)
	}
	return nil
}

// Clear removes every mapping in modes.
func (t *Mappings) Clear(modes mode.Set) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trie.Clear(modes)
}

// RemoveOrigin removes every mapping defined by origin and returns how
// many were removed.
func (t *Mappings) RemoveOrigin(origin string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	type entry struct {
		seq   key.Sequence
		modes mode.Set
	}
	var drop []entry
	t.trie.Walk(func(seq key.Sequence, m mode.Set, v *Mapping) {
		if v.Origin == origin {
			drop = append(drop, entry{seq.Clone(), m})
		}
	})
	for _, d := range drop {
		t.trie.Remove(d.seq, d.modes)
	}
	return len(drop)
}

// Feed matches typed keys in m.
func (t *Mappings) Feed(keys key.Sequence, m mode.Mode) Result[*Mapping] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r := t.trie.Feed(keys, m)
	if r.Kind == Ambiguous && r.Value.NoWait {
		r.Kind = Complete
	}
	return r
}

// Lookup returns the mapping of exactly lhs in m.
func (t *Mappings) Lookup(lhs key.Sequence, m mode.Mode) (*Mapping, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Lookup(lhs, m)
}

// Len returns the number of mappings.
func (t *Mappings) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Len()
}

// List returns the mappings in modes whose LHS starts with prefix, in key
// order. The returned mappings carry the modes they are still defined
// in.
func (t *Mappings) List(modes mode.Set, prefix key.Sequence) []*Mapping {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*Mapping
	t.trie.Walk(func(seq key.Sequence, m mode.Set, v *Mapping) {
		if !m.Overlaps(modes) || !seq.HasPrefix(prefix) {
			return
		}
		c := v.Clone()
		c.Modes = m
		out = append(out, c)
	})
	return out
}

// modesOf returns one representative mode per member of s.
func modesOf(s mode.Set) []mode.Mode {
	var out []mode.Mode
	for _, md := range []mode.Mode{
		mode.NormalMode,
		mode.VisualMode(mode.SelectChar),
		mode.SelectMode(mode.SelectChar),
		mode.OperatorPendingMode,
		mode.InsertMode,
		mode.CommandLineMode,
	} {
		if s.Contains(md) {
			out = append(out, md)
		}
	}
	return out
}

// CommandKind is the kind of a :map family command.
type CommandKind uint8

const (
	// CommandList lists mappings.
	CommandList CommandKind = iota
	// CommandMap defines a mapping.
	CommandMap
	// CommandUnmap removes a mapping.
	CommandUnmap
	// CommandClear removes all mappings of the modes.
	CommandClear
)

// Command is a parsed :map, :noremap, :unmap or :mapclear command.
type Command struct {
	Kind    CommandKind
	Modes   mode.Set
	Mapping *Mapping

	// LHS is the unmapped keys, or the list filter.
	LHS    key.Sequence
	Unique bool
}

// IsMapCommand reports whether name is a command of the :map family.
func IsMapCommand(name string) bool {
	prefix, _, _, err := splitCommandName(name)
	if err != nil {
		return false
	}
	_, err = mode.ParseSet(prefix)
	return err == nil
}

// splitCommandName splits e.g. "nnoremap" into its mode prefix and kind.
func splitCommandName(name string) (string, CommandKind, bool, error) {
	base, bang := strings.CutSuffix(name, "!")
	var (
		prefix  string
		kind    CommandKind
		noremap bool
		ok      bool
	)
	switch {
	case strings.HasSuffix(base, "mapclear"):
		prefix, kind, ok = strings.TrimSuffix(base, "mapclear"), CommandClear, true
	case strings.HasSuffix(base, "unmap"):
		prefix, kind, ok = strings.TrimSuffix(base, "unmap"), CommandUnmap, true
	case strings.HasSuffix(base, "noremap"):
		prefix, kind, noremap, ok = strings.TrimSuffix(base, "noremap"), CommandMap, true, true
	case strings.HasSuffix(base, "map"):
		prefix, kind, ok = strings.TrimSuffix(base, "map"), CommandMap, true
	}
	if !ok || len(prefix) > 1 || (bang && prefix != "") {
		return "", 0, false, fmt.Errorf("not a mapping command: %s", name)
	}
	if bang {
		prefix = "!"
	}
	return prefix, kind, noremap, nil
}

// mapArgs are the special arguments accepted before the LHS.
var mapArgs = []string{"<buffer>", "<nowait>", "<silent>", "<special>", "<script>", "<expr>", "<unique>"}

// ParseCommand parses a :map family command with its arguments, e.g.
// ParseCommand("nnoremap", "<silent> Y y$").
func ParseCommand(name, args string) (*Command, error) {
	prefix, kind, noremap, err := splitCommandName(name)
	if err != nil {
		return nil, err
	}
	modes, err := mode.ParseSet(prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	cmd := &Command{Kind: kind, Modes: modes}
	if kind == CommandClear {
		return cmd, nil
	}

	m := &Mapping{Modes: modes, NoRemap: noremap}
	rest := strings.TrimLeft(args, " \t")
	for {
		matched := false
		for _, a := range mapArgs {
			if len(rest) >= len(a) && strings.EqualFold(rest[:len(a)], a) {
				switch a {
				case "<nowait>":
					m.NoWait = true
				case "<silent>":
					m.Silent = true
				case "<expr>":
					m.Expr = true
				case "<unique>":
					cmd.Unique = true
				}
				rest = strings.TrimLeft(rest[len(a):], " \t")
				matched = true
			}
		}
		if !matched {
			break
		}
	}

	lhs, rhs, _ := strings.Cut(rest, " ")
	rhs = strings.TrimLeft(rhs, " \t")
	if lhs != "" {
		if cmd.LHS, err = key.Decode(lhs); err != nil {
			return nil, fmt.Errorf("%s: lhs: %w", name, err)
		}
	}

	switch {
	case kind == CommandUnmap:
		if len(cmd.LHS) == 0 {
			return nil, fmt.Errorf("%s: argument required", name)
		}
	case rhs == "":
		cmd.Kind = CommandList
	default:
		m.LHS = cmd.LHS
		if m.Expr {
			m.Source = rhs
		} else if !strings.EqualFold(rhs, "<Nop>") {
			if m.RHS, err = key.Decode(rhs); err != nil {
				return nil, fmt.Errorf("%s: rhs: %w", name, err)
			}
		}
		cmd.Mapping = m
	}
	return cmd, nil
}

// Execute applies the command to t. List commands return the matching
// mappings.
func (c *Command) Execute(t *Mappings) ([]*Mapping, error) {
	switch c.Kind {
	case CommandMap:
		return nil, t.Map(c.Mapping, c.Unique)
	case CommandUnmap:
		return nil, t.Unmap(c.LHS, c.Modes)
	case CommandClear:
		t.Clear(c.Modes)
		return nil, nil
	default:
		return t.List(c.Modes, c.LHS), nil
	}
}
