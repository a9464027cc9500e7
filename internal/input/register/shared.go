package register

import "sync"

// Shared holds the process-wide named (a-z) and numbered (0-9) registers.
// One Shared is injected into every view's Store. Concurrent writers get
// last-write-wins semantics.
type Shared struct {
	mu    sync.RWMutex
	slots map[rune]Payload
}

// NewShared creates an empty shared register set.
func NewShared() *Shared {
	return &Shared{slots: make(map[rune]Payload)}
}

// Get returns the content of a shared register.
func (s *Shared) Get(name rune) (Payload, bool) {
	name = Normalize(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.slots[name]
	if !ok {
		return Payload{}, false
	}
	p.Keys = p.Keys.Clone()
	return p, true
}

// Set replaces the content of a shared register. Uppercase names append.
func (s *Shared) Set(name rune, p Payload) {
	if IsAppend(name) {
		s.Append(name, p)
		return
	}
	if !IsShared(name) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = p.normalize()
}

// Append adds p to the end of a shared register.
func (s *Shared) Append(name rune, p Payload) {
	name = Normalize(name)
	if !IsShared(name) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.slots[name]; ok {
		p = appendPayload(old, p)
	}
	s.slots[name] = p.normalize()
}

// Rotate shifts 1-8 into 2-9 and stores p in register 1.
func (s *Shared) Rotate(p Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for d := '8'; d >= '1'; d-- {
		if old, ok := s.slots[d]; ok {
			s.slots[d+1] = old
		} else {
			delete(s.slots, d+1)
		}
	}
	s.slots['1'] = p.normalize()
}

// Snapshot returns a copy of every non-empty shared register.
func (s *Shared) Snapshot() map[rune]Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[rune]Payload, len(s.slots))
	for name, p := range s.slots {
		p.Keys = p.Keys.Clone()
		out[name] = p
	}
	return out
}

// Replace swaps the whole register set for regs. Invalid names are skipped.
func (s *Shared) Replace(regs map[rune]Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[rune]Payload, len(regs))
	for name, p := range regs {
		if IsShared(name) && !IsAppend(name) {
			s.slots[name] = p.normalize()
		}
	}
}

// Reset clears every shared register.
func (s *Shared) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[rune]Payload)
}
