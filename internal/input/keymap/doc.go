// Package keymap resolves typed keys to commands and user mappings.
//
// # Key Concepts
//
// Descriptor: An immutable command definition. Its behaviour tag says
// how the dispatch loop routes it (motion, operator, action), its
// argument type says what it reads after its keys, and exactly one
// effect field holds what it does.
//
// Trie: Maps key sequences to values per mode set. A node holds at most
// one value for any mode; binding the same keys twice in a mode is a
// ConflictError.
//
// Registry: The built-in commands of an engine.
//
// Mappings: The user mapping overlay, consulted before the registry.
// Mappings are recursive (map), non-recursive (noremap) or expression
// mappings (<expr>).
//
// # Feeding keys
//
// Feed returns one of:
//
//	NoMatch    the keys start no command
//	Partial    the keys are a prefix of commands; wait for more
//	Ambiguous  the keys complete a command that also prefixes longer
//	           ones; wait for more or fire the candidate on timeout
//	Complete   a command matched; Consumed keys were used
//
// # Usage
//
//	reg := keymap.NewRegistry()
//	if err := keymap.LoadDefaults(reg); err != nil {
//	    return err
//	}
//
//	res := reg.Feed(key.MustDecode("dw"), mode.NormalMode)
//	if res.Kind == keymap.Complete {
//	    // route res.Value by its Behavior
//	}
//
// # Keymap files
//
// User mappings can be kept in TOML files:
//
//	name = "mine"
//
//	[[map]]
//	modes = "n"
//	lhs = "Y"
//	rhs = "y$"
//	noremap = true
package keymap
