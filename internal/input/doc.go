// Package input is the modal command engine: it turns key events into
// edits of a buffer the way Vim does.
//
// # Architecture
//
// An Engine runs every key through the same phases:
//
//   - Mapping: user mappings (see package keymap) rewrite keys. Ambiguous
//     prefixes wait for more keys or for the timeout.
//   - Count and register: digits and "x are collected in the pending
//     state of the mode machine (package mode).
//   - Command trie: the command registry resolves the keys to a motion,
//     text object, operator or action.
//   - Dispatch: motions move the caret or complete a pending operator
//     (package vim), actions run with an execution context.
//
// Keys that come from mappings, macros (package macro), dot-repeat and
// :normal are fed back through the same phases while the engine lock is
// held, so one typed key can run many commands.
//
// # Modes
//
//   - Normal mode: motions, operators and commands
//   - Insert and Replace mode: typing, with <C-o> for one Normal command
//   - Visual and Select mode: character, line and block selections
//   - Operator-pending mode: waiting for the motion of an operator
//   - Command-line mode: ex commands, search patterns and expressions
//
// # Usage
//
//	buf := buffer.NewBufferFromString("hello world")
//	eng, err := input.New(buf, input.DefaultConfig(),
//	    input.WithNotifier(ui),
//	    input.WithEvaluator(lua),
//	)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	for ev := range keys {
//	    _ = eng.Handle(ev) // errors are also sent to the notifier
//	}
package input
