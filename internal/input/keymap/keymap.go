package keymap

import (
	"fmt"
	"strings"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
)

// Keymap is a named set of user mappings, as stored in a keymap file.
type Keymap struct {
	// Name is the keymap identifier.
	Name string `toml:"name" yaml:"name"`

	// Source indicates where this keymap was defined.
	// Examples: "user", "config:keymaps.toml"
	Source string `toml:"source,omitempty" yaml:"source,omitempty"`

	// Mappings are the entries of the keymap.
	Mappings []Entry `toml:"map" yaml:"map"`
}

// Entry is one mapping of a keymap file.
type Entry struct {
	// Modes is the :map prefix of the modes, e.g. "n", "nv", "!". Empty
	// means Normal, Visual, Select and Operator-pending.
	Modes string `toml:"modes" yaml:"modes"`

	LHS     string `toml:"lhs" yaml:"lhs"`
	RHS     string `toml:"rhs" yaml:"rhs"`
	NoRemap bool   `toml:"noremap,omitempty" yaml:"noremap,omitempty"`
	Expr    bool   `toml:"expr,omitempty" yaml:"expr,omitempty"`
	NoWait  bool   `toml:"nowait,omitempty" yaml:"nowait,omitempty"`
	Silent  bool   `toml:"silent,omitempty" yaml:"silent,omitempty"`
}

// NewKeymap creates a new keymap with the given name.
func NewKeymap(name string) *Keymap {
	return &Keymap{Name: name}
}

// WithSource sets the source for this keymap.
func (k *Keymap) WithSource(source string) *Keymap {
	k.Source = source
	return k
}

// Map adds a recursive mapping.
func (k *Keymap) Map(modes, lhs, rhs string) *Keymap {
	k.Mappings = append(k.Mappings, Entry{Modes: modes, LHS: lhs, RHS: rhs})
	return k
}

// Noremap adds a non-recursive mapping.
func (k *Keymap) Noremap(modes, lhs, rhs string) *Keymap {
	k.Mappings = append(k.Mappings, Entry{Modes: modes, LHS: lhs, RHS: rhs, NoRemap: true})
	return k
}

// Parse converts the entries into mappings.
func (k *Keymap) Parse() ([]*Mapping, error) {
	out := make([]*Mapping, 0, len(k.Mappings))
	for i, e := range k.Mappings {
		m, err := e.parse()
		if err != nil {
			return nil, fmt.Errorf("keymap %q: mapping %d (%s): %w", k.Name, i, e.LHS, err)
		}
		m.Origin = k.Source
		out = append(out, m)
	}
	return out, nil
}

// Validate checks that all entries parse.
func (k *Keymap) Validate() error {
	_, err := k.Parse()
	return err
}

func (e Entry) parse() (*Mapping, error) {
	if e.LHS == "" {
		return nil, ErrEmptySequence
	}
	modes, err := mode.ParseSet(e.Modes)
	if err != nil {
		return nil, err
	}
	lhs, err := key.Decode(e.LHS)
	if err != nil {
		return nil, fmt.Errorf("lhs: %w", err)
	}

	m := &Mapping{
		LHS:     lhs,
		Modes:   modes,
		NoRemap: e.NoRemap,
		Expr:    e.Expr,
		NoWait:  e.NoWait,
		Silent:  e.Silent,
	}
	switch {
	case e.Expr:
		m.Source = e.RHS
	case strings.EqualFold(e.RHS, "<Nop>"):
	default:
		if m.RHS, err = key.Decode(e.RHS); err != nil {
			return nil, fmt.Errorf("rhs: %w", err)
		}
	}
	return m, nil
}

// Apply adds every mapping of k to t.
func (k *Keymap) Apply(t *Mappings) error {
	ms, err := k.Parse()
	if err != nil {
		return err
	}
	for _, m := range ms {
		if err := t.Map(m, false); err != nil {
			return fmt.Errorf("keymap %q: %w", k.Name, err)
		}
	}
	return nil
}

// FromMappings builds a keymap of the given mappings, for saving.
func FromMappings(name string, ms []*Mapping) *Keymap {
	k := NewKeymap(name)
	for _, m := range ms {
		rhs := m.RHS.String()
		if m.Expr {
			rhs = m.Source
		} else if len(m.RHS) == 0 {
			rhs = "<Nop>"
		}
		k.Mappings = append(k.Mappings, Entry{
			Modes:   m.Modes.String(),
			LHS:     m.LHS.String(),
			RHS:     rhs,
			NoRemap: m.NoRemap,
			Expr:    m.Expr,
			NoWait:  m.NoWait,
			Silent:  m.Silent,
		})
	}
	return k
}
