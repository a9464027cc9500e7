// Package config provides the configuration of modalkit sessions.
//
// Configuration comes from three sources, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension, with optional includes
//  3. MODALKIT_ environment variables
//
// A file looks like this:
//
//	timeoutlen = 500
//	shiftwidth = 4
//	expandtab = true
//	clipboard = "unnamedplus"
//	keymaps = ["~/.config/modalkit/keymaps"]
//
//	[registers]
//	path = "~/.local/state/modalkit/registers.yaml"
//
//	[logging]
//	level = "debug"
//
//	[[map]]
//	modes = "i"
//	lhs = "jk"
//	rhs = "<Esc>"
//	noremap = true
//
// Unknown keys in a file are errors. Watch reloads a file when it changes
// so sessions can re-apply options and mappings.
//
// # Sub-packages
//
//   - loader: reading TOML, YAML and environment sources into maps
//   - watcher: fsnotify-based file watching with debouncing
package config
