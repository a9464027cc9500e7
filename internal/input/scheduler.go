package input

import (
	"sync"
	"time"
)

// Scheduler runs delayed callbacks for the ambiguous key timeout.
type Scheduler interface {
	// AfterFunc calls f after d and returns a function that cancels the
	// call if it has not run yet.
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// timerScheduler schedules with time.AfterFunc.
type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// ManualScheduler holds scheduled callbacks until Fire is called. It
// makes timeouts deterministic in tests and headless runs.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*scheduled
}

type scheduled struct {
	d         time.Duration
	f         func()
	cancelled bool
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc records f until Fire is called.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &scheduled{d: d, f: f}
	s.pending = append(s.pending, c)
	return func() {
		s.mu.Lock()
		c.cancelled = true
		s.mu.Unlock()
	}
}

// Pending returns the number of callbacks waiting to fire.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.pending {
		if !c.cancelled {
			n++
		}
	}
	return n
}

// Fire runs every pending callback and returns how many ran.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	calls := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, c := range calls {
		s.mu.Lock()
		cancelled := c.cancelled
		s.mu.Unlock()
		if !cancelled {
			c.f()
			n++
		}
	}
	return n
}
