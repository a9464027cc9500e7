// Package key provides key event types and the key notation codec.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single normalized key press
//   - Sequence: A series of events forming a command, mapping or macro
//
// # Notation
//
// Encode and Decode convert between events and Vim key notation. Encoding is
// canonical and Decode accepts the common variations:
//
//	a  A  <lt>  <Space>  <Nul>  <Esc>  <CR>  <C-x>  <S-Tab>  <A-X>  <Char-128>
//
// <M-x> is Alt, as in Vim; the Cmd or Super key is written <D-x>.
//
// For every normalized event e, Decode(Encode(e)) yields exactly [e], and
// re-encoding any decoded canonical string reproduces it.
//
// Parse accepts single-key specifications in config files, including the
// "Ctrl+S" form. FromTcell adapts terminal events from tcell.
package key
