package macro

import (
	"fmt"
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/register"
)

// Recorder records typed keys into a register. Keys are the raw keys as
// typed, before mapping; keys produced by mappings, macros and repeats
// must not be passed to Record.
type Recorder struct {
	mu        sync.Mutex
	store     *register.Store
	recording bool
	register  rune
	events    key.Sequence
}

// NewRecorder creates a recorder that saves macros into store.
func NewRecorder(store *register.Store) *Recorder {
	return &Recorder{store: store}
}

// StartRecording begins recording into name. An uppercase name appends
// to the register when the recording stops.
func (r *Recorder) StartRecording(name rune) error {
	if !register.IsRecordable(name) {
		return fmt.Errorf("%w %q", ErrNotRecordable, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w into register %q", ErrAlreadyRecording, r.register)
	}

	r.recording = true
	r.register = name
	r.events = nil
	return nil
}

// StopRecording ends the recording and writes it to the register. The
// last drop keys, the keys that stopped the recording, are discarded.
// It returns the register and the saved keys.
func (r *Recorder) StopRecording(drop int) (rune, key.Sequence, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return 0, nil, ErrNotRecording
	}
	name := r.register
	events := r.events
	r.recording = false
	r.events = nil
	r.mu.Unlock()

	drop = min(max(drop, 0), len(events))
	events = events[:len(events)-drop]

	if err := r.store.Write(name, register.FromKeys(events), false); err != nil {
		return name, nil, fmt.Errorf("saving macro: %w", err)
	}
	return name, events, nil
}

// Cancel ends the recording without saving it.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.events = nil
}

// IsRecording returns true if currently recording.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentRegister returns the register being recorded to, or 0 if not recording.
func (r *Recorder) CurrentRegister() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return r.register
	}
	return 0
}

// Record adds a key event to the current recording.
// Does nothing if not recording.
func (r *Recorder) Record(event key.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		r.events = append(r.events, event)
	}
}

// CurrentRecordingLength returns the number of events recorded so far.
// Returns 0 if not recording.
func (r *Recorder) CurrentRecordingLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return len(r.events)
}
