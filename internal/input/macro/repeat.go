package macro

import (
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/register"
)

// Extent is the size of the Visual selection a change applied to.
// Repeating it selects an area of the same size at the caret.
type Extent struct {
	Wise  register.Wise
	Lines int // lines spanned, at least 1
	Cols  int // characters on the last line (char-wise) or block width
}

// Change is a repeatable buffer change, split into the parts needed to
// replay it with a different count.
type Change struct {
	// Register is the explicit register, or 0.
	Register rune

	// Count is the count typed before the command, or 0.
	Count int

	// OpKeys are the operator or action keys, including a character
	// argument (r{char}).
	OpKeys key.Sequence

	// MotionCount is the count typed between operator and motion, or 0.
	MotionCount int

	// MotionKeys are the motion or text-object keys and their argument.
	MotionKeys key.Sequence

	// Tail holds the keys typed in Insert mode, ending with the key that
	// left it.
	Tail key.Sequence

	// Visual is set when the change applied to a Visual selection.
	Visual *Extent

	// Put marks a put command; repeating a put from "1.."8 advances the
	// register number.
	Put bool
}

// IsEmpty reports whether the change holds no keys.
func (c Change) IsEmpty() bool {
	return len(c.OpKeys) == 0 && len(c.MotionKeys) == 0 && len(c.Tail) == 0
}

// WithCount returns a copy of c with the count replaced. The new count
// stands for the whole command, so the motion count is dropped.
func (c Change) WithCount(n int) Change {
	if n <= 0 {
		return c
	}
	c.Count = n
	c.MotionCount = 0
	return c
}

// Keys returns the keys that replay the change.
func (c Change) Keys() key.Sequence {
	var out key.Sequence
	if c.Register != 0 {
		out = append(out, key.Char('"'), key.Char(c.Register))
	}
	out = append(out, key.FromCount(c.Count)...)
	out = append(out, c.OpKeys...)
	out = append(out, key.FromCount(c.MotionCount)...)
	out = append(out, c.MotionKeys...)
	out = append(out, c.Tail...)
	return out
}

func (c Change) clone() Change {
	c.OpKeys = c.OpKeys.Clone()
	c.MotionKeys = c.MotionKeys.Clone()
	c.Tail = c.Tail.Clone()
	if c.Visual != nil {
		v := *c.Visual
		c.Visual = &v
	}
	return c
}

// ReplayFunc replays a change through the engine.
type ReplayFunc func(c Change) error

// Repeater holds the single repeat slot used by ".".
type Repeater struct {
	mu        sync.Mutex
	last      Change
	has       bool
	replaying bool

	// open insert session
	session   *Change
	inSession bool
}

// NewRepeater creates an empty repeater.
func NewRepeater() *Repeater {
	return &Repeater{}
}

// NoteRepeatable stores c as the last change. It does nothing while a
// repeat is replaying.
func (r *Repeater) NoteRepeatable(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaying || c.IsEmpty() {
		return
	}
	r.last = c.clone()
	r.has = true
}

// Last returns the last change.
func (r *Repeater) Last() (Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.has {
		return Change{}, false
	}
	return r.last.clone(), true
}

// IsReplaying returns true while Repeat runs.
func (r *Repeater) IsReplaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaying
}

// Repeat replays the last change through replay. A positive count
// replaces the stored count, for this and later repeats.
func (r *Repeater) Repeat(count int, replay ReplayFunc) error {
	r.mu.Lock()
	if !r.has {
		r.mu.Unlock()
		return ErrNothingToRepeat
	}
	if r.replaying {
		r.mu.Unlock()
		return ErrNestedRepeat
	}

	c := r.last.WithCount(count)
	if c.Put && c.Register >= '1' && c.Register <= '8' {
		c.Register++
	}
	r.last = c.clone()
	r.replaying = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.replaying = false
		r.mu.Unlock()
	}()

	return replay(c)
}

// BeginSession opens an insert session for a change that enters Insert
// mode. Keys typed until EndSession become its tail. Sessions are not
// opened while replaying.
func (r *Repeater) BeginSession(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaying {
		return
	}
	cc := c.clone()
	r.session = &cc
	r.inSession = true
}

// InSession returns true while an insert session is open.
func (r *Repeater) InSession() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inSession
}

// RecordInsertKey adds a key typed in Insert mode to the open session.
func (r *Repeater) RecordInsertKey(ev key.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inSession {
		r.session.Tail = append(r.session.Tail, ev)
	}
}

// DropInsertKeys removes the last n keys from the open session.
func (r *Repeater) DropInsertKeys(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inSession {
		return
	}
	n = min(max(n, 0), len(r.session.Tail))
	r.session.Tail = r.session.Tail[:len(r.session.Tail)-n]
}

// EndSession closes the open session with the key that left Insert mode
// and stores the change. It returns the stored change.
func (r *Repeater) EndSession(end key.Event) (Change, bool) {
	r.mu.Lock()
	if !r.inSession {
		r.mu.Unlock()
		return Change{}, false
	}
	c := *r.session
	c.Tail = append(c.Tail, end)
	r.session = nil
	r.inSession = false
	r.mu.Unlock()

	r.NoteRepeatable(c)
	return c, true
}

// AbortSession discards the open session.
func (r *Repeater) AbortSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	r.inSession = false
}

// Reset clears the slot and any open session.
func (r *Repeater) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = Change{}
	r.has = false
	r.session = nil
	r.inSession = false
}
