// Package expr evaluates the expressions of the = register, <C-r>= in
// Insert mode, :let and <expr> mappings.
//
// Expressions are Lua. A source that parses as an expression is
// evaluated as "return <src>"; anything else runs as a chunk and its
// first return value is the result. Values are converted to text:
//
//   - strings as they are
//   - integral numbers without a fraction
//   - booleans as "true" or "false"
//   - nil as the empty string
//   - sequences as their elements, one per line, with a trailing
//     newline so the register becomes line-wise
//
// The Lua state is sandboxed: only the base, table, string and math
// libraries are opened, and loading code or files is disabled. Each
// evaluation runs under a time limit.
//
// Compiled chunks are cached by source, so a mapping evaluated on every
// key press is parsed once.
package expr
