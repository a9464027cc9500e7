package mode

import (
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
)

// DefaultMaxCount is the count at which digit accumulation saturates.
const DefaultMaxCount = 999_999_999

// Operator is the operator waiting for its motion in OperatorPending mode.
type Operator interface {
	// Name returns the operator name (e.g., "delete").
	Name() string
}

// Pending is the state of the command being typed.
type Pending struct {
	// Count is the count typed so far; zero means none.
	Count int

	// Register is the selected register; zero means none.
	Register rune

	// Keys are the command keys typed so far, after mapping.
	Keys key.Sequence

	// Operator waits for its motion, if set.
	Operator Operator

	// OperatorCount is the count typed before the operator.
	OperatorCount int

	// OperatorKeys are the keys that selected the operator.
	OperatorKeys key.Sequence
}

// ChangeCallback is called when the current mode changes.
type ChangeCallback func(from, to Mode)

// Machine is the mode state machine of one engine.
type Machine struct {
	mu sync.RWMutex

	// stack holds the mode history; stack[0] is always Normal and the
	// last element is the current mode.
	stack []Mode

	pending  Pending
	maxCount int

	callbacks []ChangeCallback
}

// NewMachine creates a machine in Normal mode.
func NewMachine() *Machine {
	return &Machine{
		stack:    []Mode{NormalMode},
		maxCount: DefaultMaxCount,
	}
}

// SetMaxCount sets the saturation point of counts.
func (m *Machine) SetMaxCount(n int) {
	if n <= 0 {
		n = DefaultMaxCount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxCount = n
}

// MaxCount returns the saturation point of counts.
func (m *Machine) MaxCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxCount
}

// Current returns the current mode.
func (m *Machine) Current() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stack[len(m.stack)-1]
}

// Previous returns the mode below the current one on the stack.
func (m *Machine) Previous() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.stack) < 2 {
		return NormalMode
	}
	return m.stack[len(m.stack)-2]
}

// Depth returns the number of modes on the stack, including the floor.
func (m *Machine) Depth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stack)
}

// Push saves the current mode and switches to md.
// Pushing Normal resets the stack to its floor.
func (m *Machine) Push(md Mode) {
	m.transition(func() {
		if md == NormalMode {
			m.stack = m.stack[:1]
			return
		}
		m.stack = append(m.stack, md)
	})
}

// Pop restores the previously pushed mode and returns it. Popping the
// floor leaves the machine in Normal mode.
func (m *Machine) Pop() Mode {
	m.transition(func() {
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
		}
	})
	return m.Current()
}

// Switch replaces the current mode with md. Switching from the floor
// pushes md instead, so that Normal stays at the bottom.
func (m *Machine) Switch(md Mode) {
	m.transition(func() {
		switch {
		case md == NormalMode:
			m.stack = m.stack[:1]
		case len(m.stack) == 1:
			m.stack = append(m.stack, md)
		default:
			m.stack[len(m.stack)-1] = md
		}
	})
}

// Restore makes md current, unwinding the stack down to it when it is
// present and switching to it otherwise.
func (m *Machine) Restore(md Mode) {
	m.transition(func() {
		for i := len(m.stack) - 1; i >= 0; i-- {
			if m.stack[i] == md {
				m.stack = m.stack[:i+1]
				return
			}
		}
		m.stack[len(m.stack)-1] = md
		if len(m.stack) == 1 && md != NormalMode {
			m.stack = []Mode{NormalMode, md}
		}
	})
}

// Reset returns to Normal mode and clears the pending state.
func (m *Machine) Reset() {
	m.transition(func() {
		m.stack = m.stack[:1]
		m.pending = Pending{}
	})
}

// transition applies fn under the lock and notifies listeners outside
// of it when the current mode changed.
func (m *Machine) transition(fn func()) {
	m.mu.Lock()
	from := m.stack[len(m.stack)-1]
	fn()
	to := m.stack[len(m.stack)-1]

	var callbacks []ChangeCallback
	if from != to {
		callbacks = make([]ChangeCallback, len(m.callbacks))
		copy(callbacks, m.callbacks)
	}
	m.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(from, to)
		}
	}
}

// OnChange registers a callback for mode changes.
// Returns a function to unregister the callback.
func (m *Machine) OnChange(callback ChangeCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
	index := len(m.callbacks) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if index < len(m.callbacks) {
			m.callbacks[index] = nil
		}
	}
}

// Pending returns a copy of the pending command state.
func (m *Machine) Pending() Pending {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.pending
	p.Keys = p.Keys.Clone()
	p.OperatorKeys = p.OperatorKeys.Clone()
	return p
}

// AccumulateDigit appends digit d to the count, saturating at the
// maximum count, and returns the new count.
func (m *Machine) AccumulateDigit(d int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.pending.Count
	if c > (m.maxCount-d)/10 {
		c = m.maxCount
	} else {
		c = c*10 + d
	}
	m.pending.Count = c
	return c
}

// DeleteDigit removes the last digit of the count (N<Del>).
func (m *Machine) DeleteDigit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Count /= 10
	return m.pending.Count
}

// Count returns the count typed so far and whether one was typed.
func (m *Machine) Count() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending.Count, m.pending.Count > 0
}

// SetPendingRegister selects the register for the next command.
func (m *Machine) SetPendingRegister(name rune) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Register = name
}

// Register returns the selected register, or zero.
func (m *Machine) Register() rune {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending.Register
}

// AppendKey records a typed command key.
func (m *Machine) AppendKey(ev key.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Keys = append(m.pending.Keys, ev)
}

// SetKeys replaces the typed command keys.
func (m *Machine) SetKeys(keys key.Sequence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Keys = keys.Clone()
}

// Keys returns the typed command keys.
func (m *Machine) Keys() key.Sequence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending.Keys.Clone()
}

// SetPendingOperator stores op, moves the typed count and keys into the
// operator slots and enters OperatorPending mode.
func (m *Machine) SetPendingOperator(op Operator) {
	m.transition(func() {
		m.pending.Operator = op
		m.pending.OperatorCount = m.pending.Count
		m.pending.OperatorKeys = m.pending.Keys
		m.pending.Count = 0
		m.pending.Keys = nil

		if m.stack[len(m.stack)-1].Kind != OperatorPending {
			m.stack = append(m.stack, OperatorPendingMode)
		}
	})
}

// PendingOperator returns the operator waiting for its motion.
func (m *Machine) PendingOperator() (Operator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending.Operator, m.pending.Operator != nil
}

// ResetPending clears the pending state and leaves OperatorPending mode.
func (m *Machine) ResetPending() {
	m.transition(func() {
		m.pending = Pending{}
		if len(m.stack) > 1 && m.stack[len(m.stack)-1].Kind == OperatorPending {
			m.stack = m.stack[:len(m.stack)-1]
		}
	})
}
