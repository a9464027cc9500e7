package input

import (
	"fmt"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/mode"
)

// suspension is a command waiting for the key that completes it, such
// as the character of f{char} or the register name of "x.
type suspension struct {
	keys key.Sequence

	// literal suspensions take <Esc> as their argument instead of being
	// cancelled by it.
	literal bool

	resume func(ev key.Event) error
}

// suspendFor parks the dispatch until the next key.
func (e *Engine) suspendFor(keys key.Sequence, literal bool, fn func(ev key.Event) error) {
	e.suspend = &suspension{keys: keys.Clone(), literal: literal, resume: fn}
}

// feed processes keys in order and stops at the first error.
func (e *Engine) feed(keys key.Sequence, remap bool) error {
	for _, ev := range keys {
		if err := e.process(ev, remap); err != nil {
			return err
		}
	}
	return nil
}

// process runs one key through the dispatch phases. Keys with remap
// unset skip the mapping phase.
func (e *Engine) process(ev key.Event, remap bool) error {
	return e.step(ev, remap, true)
}

// step is process with control over insert-session recording; keys
// that are fed again after a longer match failed are already recorded.
func (e *Engine) step(ev key.Event, remap, record bool) error {
	e.stopTimeout()

	if e.suspend != nil {
		return e.resume(ev, record)
	}

	if ev.IsEscape() {
		if err := e.flushMapping(); err != nil {
			return err
		}
		if e.suspend != nil {
			return e.resume(ev, record)
		}
		return e.command(ev, record)
	}

	if remap && e.mappable(ev) {
		return e.mapKey(ev)
	}
	return e.command(ev, record)
}

// resume hands ev to the suspended command.
func (e *Engine) resume(ev key.Event, record bool) error {
	s := e.suspend
	e.suspend = nil
	if record {
		e.recordInsertKey(ev)
	}
	if ev.IsEscape() && !s.literal {
		if md := e.modes.Current(); !md.IsTyping() && md.Kind != mode.CommandLine {
			e.modes.ResetPending()
			e.settle()
		}
		return nil
	}
	return s.resume(ev)
}

// mappable reports whether ev goes through the mapping phase.
func (e *Engine) mappable(ev key.Event) bool {
	if e.maps.Len() == 0 {
		return false
	}
	// 0 continues a count instead of being mapped.
	if len(e.mapBuf) == 0 && ev == key.Char('0') && e.counting(e.modes.Current()) {
		if _, ok := e.modes.Count(); ok {
			return false
		}
	}
	return true
}

// mapKey adds ev to the mapping buffer and expands a completed mapping.
func (e *Engine) mapKey(ev key.Event) error {
	e.mapBuf = append(e.mapBuf, ev)
	res := e.maps.Feed(e.mapBuf, e.modes.Current())
	switch res.Kind {
	case keymap.Partial, keymap.Ambiguous:
		e.scheduleTimeout()
		return nil
	case keymap.Complete:
		return e.expandMapping(res.Value, res.Consumed)
	default:
		return e.abandonMapping()
	}
}

// expandMapping runs m, which consumed the first n buffered keys, and
// processes the remaining keys again.
func (e *Engine) expandMapping(m *keymap.Mapping, n int) error {
	rest := e.mapBuf[n:].Clone()
	e.mapBuf = nil
	if err := e.runMapping(m); err != nil {
		return err
	}
	return e.feed(rest, true)
}

// abandonMapping passes the first buffered key on unmapped and maps the
// rest again.
func (e *Engine) abandonMapping() error {
	keys := e.mapBuf
	e.mapBuf = nil
	if len(keys) == 0 {
		return nil
	}
	if err := e.step(keys[0], false, true); err != nil {
		return err
	}
	return e.feed(keys[1:], true)
}

// flushMapping passes every buffered key on unmapped.
func (e *Engine) flushMapping() error {
	keys := e.mapBuf
	e.mapBuf = nil
	for _, ev := range keys {
		if err := e.step(ev, false, true); err != nil {
			return err
		}
	}
	return nil
}

// runMapping feeds the right-hand side of m.
func (e *Engine) runMapping(m *keymap.Mapping) error {
	if e.depth >= e.cfg.MaxMapDepth {
		return &keymap.RecursiveMappingError{Keys: m.LHS.String(), Depth: e.depth}
	}

	rhs := m.RHS
	if m.Expr {
		out, err := e.evaluate(m.Source)
		if err != nil {
			return err
		}
		if rhs, err = key.Decode(out); err != nil {
			return fmt.Errorf("mapping %s: %w", m.LHS, err)
		}
	}

	e.depth++
	defer func() { e.depth-- }()
	e.metrics.RecordMapping()
	e.log.Debug("engine %s: map %s -> %s (depth %d)", e.id, m.LHS, rhs, e.depth)

	if len(rhs) == 0 {
		return nil
	}
	if !m.NoRemap && rhs.HasPrefix(m.LHS) {
		// The left-hand side at the start of its own expansion is not
		// mapped again.
		if err := e.process(rhs[0], false); err != nil {
			return err
		}
		return e.feed(rhs[1:], true)
	}
	return e.feed(rhs, !m.NoRemap)
}

// counting reports whether digits form a count in md.
func (e *Engine) counting(md mode.Mode) bool {
	return md.IsNormalLike() || md.IsVisual() || md.Kind == mode.OperatorPending
}

// countPhase consumes count digits, <Del> while counting, and "x.
func (e *Engine) countPhase(ev key.Event, md mode.Mode) bool {
	if !e.counting(md) {
		return false
	}
	_, hasCount := e.modes.Count()
	switch {
	case ev.IsDigit() && (ev.Rune != '0' || hasCount):
		e.modes.AccumulateDigit(int(ev.Rune - '0'))
		return true
	case ev == key.Special(key.KeyDelete) && hasCount:
		e.modes.DeleteDigit()
		return true
	case ev == key.Char('"') && md.Kind != mode.OperatorPending:
		e.suspendFor(key.Sequence{ev}, false, e.selectRegister)
		return true
	}
	return false
}

// selectRegister completes "x.
func (e *Engine) selectRegister(ev key.Event) error {
	r, ok := ev.CharValue()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotACharacter, ev)
	}
	switch r {
	case '=':
		return e.openCmdline('=', func(src string) error {
			if _, err := e.regs.SetExpression(src); err != nil {
				return e.evalError(src, err)
			}
			e.modes.SetPendingRegister('=')
			return nil
		})
	default:
		if err := validRegister(r); err != nil {
			return err
		}
		e.modes.SetPendingRegister(r)
	}
	return nil
}

// command runs the mapped key ev through the count phase and the
// command trie.
func (e *Engine) command(ev key.Event, record bool) error {
	md := e.modes.Current()

	if ev.IsEscape() {
		return e.cancelCommand(md)
	}
	if md.Kind == mode.CommandLine {
		return e.cmdlineKey(ev)
	}
	if record {
		e.recordInsertKey(ev)
	}
	if len(e.cmdBuf) == 0 && e.countPhase(ev, md) {
		return nil
	}
	e.cmdBuf = append(e.cmdBuf, ev)
	return e.resolveCommand(md, false)
}

// cancelCommand handles <Esc>: it drops a partly typed command, or
// leaves the current mode.
func (e *Engine) cancelCommand(md mode.Mode) error {
	if len(e.cmdBuf) > 0 {
		keys := e.cmdBuf
		e.cmdBuf = nil
		if md.IsTyping() {
			if err := e.typeKeys(keys); err != nil {
				return err
			}
			return e.escape()
		}
		e.modes.ResetPending()
		e.settle()
		return nil
	}
	return e.escape()
}

// escape leaves the current mode, or drops the pending count, register
// and operator in Normal mode.
func (e *Engine) escape() error {
	md := e.modes.Current()
	switch {
	case md.Kind == mode.CommandLine:
		return e.cancelCmdline()
	case md.IsTyping():
		return e.endInsert(key.Special(key.KeyEscape))
	case md.HasSelection():
		e.modes.ResetPending()
		e.leaveVisual()
	default:
		e.modes.ResetPending()
	}
	e.settle()
	return nil
}

// resolveCommand feeds the command buffer to the trie. force fires an
// ambiguous candidate, as when the timeout expires.
func (e *Engine) resolveCommand(md mode.Mode, force bool) error {
	res := e.registry.Feed(e.cmdBuf, md)
	switch res.Kind {
	case keymap.Partial, keymap.Ambiguous:
		if res.Consumed == 0 {
			return nil
		}
		if !force {
			e.scheduleTimeout()
			return nil
		}
		fallthrough
	case keymap.Complete:
		keys := e.cmdBuf[:res.Consumed].Clone()
		rest := e.cmdBuf[res.Consumed:].Clone()
		e.cmdBuf = nil
		if err := e.dispatch(res.Value, keys); err != nil {
			return err
		}
		for _, ev := range rest {
			if err := e.step(ev, false, false); err != nil {
				return err
			}
		}
		return nil
	default:
		keys := e.cmdBuf
		e.cmdBuf = nil
		return e.noMatch(keys, md)
	}
}

// noMatch handles keys that match no command. Typing modes insert them;
// Select mode replaces the selection with them.
func (e *Engine) noMatch(keys key.Sequence, md mode.Mode) error {
	if md.IsTyping() {
		return e.typeKeys(keys)
	}
	if md.IsSelect() {
		if _, ok := keys[0].CharValue(); ok {
			return e.selectReplace(keys)
		}
	}
	e.modes.ResetPending()
	e.settle()
	return &keymap.NoMatchError{Keys: keys.String(), Mode: md.Name()}
}

// dispatch reads the argument of d and routes it.
func (e *Engine) dispatch(d *keymap.Descriptor, keys key.Sequence) error {
	if e.hooks.RunPreCommand(d.Name, e.statusLocked()) {
		e.metrics.RecordHookConsumption()
		e.modes.ResetPending()
		return nil
	}
	e.metrics.RecordCommand()
	e.log.Debug("engine %s: %s %s", e.id, d.Name, keys)

	switch d.Arg {
	case keymap.ArgCharacter:
		e.suspendFor(keys, false, func(ev key.Event) error {
			r, ok := ev.CharValue()
			if !ok {
				e.modes.ResetPending()
				e.settle()
				return fmt.Errorf("%w: %s", ErrNotACharacter, ev)
			}
			return e.route(d, append(keys.Clone(), ev), r, "")
		})
		return nil

	case keymap.ArgExString:
		prompt := ':'
		if r, ok := keys[len(keys)-1].CharValue(); ok {
			prompt = r
		}
		return e.openCmdline(prompt, func(text string) error {
			full := keys.Concat(key.FromText(text))
			full = append(full, key.Special(key.KeyEnter))
			return e.route(d, full, 0, text)
		})
	}
	return e.route(d, keys, 0, "")
}

// route runs d by its behaviour.
func (e *Engine) route(d *keymap.Descriptor, keys key.Sequence, char rune, str string) error {
	switch d.Behavior {
	case keymap.BehaviorMotion:
		return e.runMotion(d, keys, char, str)
	case keymap.BehaviorOperator:
		return e.runOperator(d, keys)
	default:
		return e.runAction(d, keys, char, str)
	}
}

// scheduleTimeout (re)starts the ambiguity timeout.
func (e *Engine) scheduleTimeout() {
	e.stopTimeout()
	if !e.cfg.Timeout {
		return
	}
	gen := e.timeoutGen
	e.cancelTimeout = e.sched.AfterFunc(e.cfg.TimeoutLen, func() {
		e.onTimeout(gen)
	})
}

// stopTimeout cancels a scheduled timeout. A callback already running
// sees a stale generation and does nothing.
func (e *Engine) stopTimeout() {
	e.timeoutGen++
	if e.cancelTimeout != nil {
		e.cancelTimeout()
		e.cancelTimeout = nil
	}
}

func (e *Engine) onTimeout(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.timeoutGen {
		return
	}
	e.cancelTimeout = nil
	e.metrics.RecordSequenceTimeout()

	if err := e.resolvePending(); err != nil {
		e.recover(err)
	}
}

// resolvePending decides the buffered keys as if no more keys came.
func (e *Engine) resolvePending() error {
	md := e.modes.Current()
	if len(e.mapBuf) > 0 {
		res := e.maps.Feed(e.mapBuf, md)
		if res.Kind != keymap.NoMatch && res.Consumed > 0 {
			return e.expandMapping(res.Value, res.Consumed)
		}
		return e.abandonMapping()
	}
	if len(e.cmdBuf) > 0 {
		return e.resolveCommand(md, true)
	}
	return nil
}
