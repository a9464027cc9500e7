package keymap

import (
	"fmt"
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/mode"
)

// Registry holds the built-in commands of an engine.
type Registry struct {
	mu   sync.RWMutex
	trie *Trie[*Descriptor]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{trie: NewTrie[*Descriptor]()}
}

// Register adds d. It fails with a *ConflictError when its keys are
// already registered in one of its modes.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("cannot register nil descriptor")
	}
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.trie.Insert(d.Keys, d.Modes, d); err != nil {
		return fmt.Errorf("registering %s: %w", d.Name, err)
	}
	return nil
}

// RegisterAll adds every descriptor, stopping at the first error.
func (r *Registry) RegisterAll(ds []*Descriptor) error {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the command bound to keys in modes.
func (r *Registry) Unregister(keys key.Sequence, modes mode.Set) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trie.Remove(keys, modes)
}

// Lookup returns the command bound to exactly keys in m.
func (r *Registry) Lookup(keys key.Sequence, m mode.Mode) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trie.Lookup(keys, m)
}

// Feed matches typed command keys in m.
func (r *Registry) Feed(keys key.Sequence, m mode.Mode) Result[*Descriptor] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trie.Feed(keys, m)
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trie.Len()
}

// Commands returns every command available in modes, in key order.
func (r *Registry) Commands(modes mode.Set) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Descriptor
	r.trie.Walk(func(_ key.Sequence, m mode.Set, d *Descriptor) {
		if m.Overlaps(modes) {
			out = append(out, d)
		}
	})
	return out
}
