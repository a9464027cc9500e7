// Package mode provides the modal state machine.
//
// A Mode is a small tagged value: Normal, Insert, Replace, Visual and
// Select (each with a character, line or block selection kind),
// OperatorPending, CommandLine, and the single-command composites
// InsertNormal, InsertVisual and InsertSelect used by <C-o> from Insert
// mode.
//
// The Machine keeps a mode stack whose floor is always Normal, and the
// pending state of the command being typed: count, register, typed keys
// and the operator waiting for its motion.
//
// # Mode Lifecycle
//
//	Normal ──d──▶ OperatorPending ──w──▶ Normal
//	Normal ──i──▶ Insert ──<C-o>──▶ InsertNormal ──(one command)──▶ Insert
//	Insert ──<Esc>──▶ Normal
//
// Transition listeners registered with OnChange are notified after every
// change of the current mode.
package mode
