package history

import (
	"errors"
	"sync"
	"time"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Target applies raw replacements without recording them.
type Target interface {
	ApplyReplace(start, end int, text string) error
}

// entry is one undo unit.
type entry struct {
	name        string
	ops         []*Operation
	caretBefore int
	timestamp   time.Time
}

// History manages undo/redo state for a buffer.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	// Grouping state. Nested groups fold into the outermost one.
	depth int
	group *entry

	maxEntries int
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &History{maxEntries: maxEntries}
}

// Record adds an applied operation. Outside a group it becomes its own
// undo entry. Recording clears the redo stack.
func (h *History) Record(op *Operation, caretBefore int) {
	if op == nil || op.IsNoop() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth > 0 {
		h.group.ops = append(h.group.ops, op)
		return
	}
	h.pushLocked(&entry{
		name:        "edit",
		ops:         []*Operation{op},
		caretBefore: caretBefore,
		timestamp:   time.Now(),
	})
}

// pushLocked adds an entry without acquiring the lock.
func (h *History) pushLocked(e *entry) {
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// BeginGroup starts an undo group. Calls nest; only the outermost
// EndGroup closes the group.
func (h *History) BeginGroup(name string, caretBefore int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.depth++
	if h.depth == 1 {
		h.group = &entry{name: name, caretBefore: caretBefore}
	}
}

// EndGroup finishes an undo group. Empty groups are dropped.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth > 0 {
		return
	}

	g := h.group
	h.group = nil
	if len(g.ops) == 0 {
		return
	}
	g.timestamp = time.Now()
	h.pushLocked(g)
}

// IsGrouping returns true if currently in an undo group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.depth > 0
}

// Undo reverts the last entry on t and returns the caret offset to
// restore.
func (h *History) Undo(t Target) (int, error) {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return 0, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	for i := len(e.ops) - 1; i >= 0; i-- {
		inv := e.ops[i].Invert()
		if err := t.ApplyReplace(inv.Start, inv.End(), inv.NewText); err != nil {
			h.mu.Lock()
			h.undoStack = append(h.undoStack, e)
			h.mu.Unlock()
			return 0, err
		}
	}

	h.mu.Lock()
	h.redoStack = append(h.redoStack, e)
	h.mu.Unlock()
	return caretAfterUndo(e), nil
}

// Redo reapplies the last undone entry on t and returns the caret offset
// to restore.
func (h *History) Redo(t Target) (int, error) {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return 0, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	for _, op := range e.ops {
		if err := t.ApplyReplace(op.Start, op.End(), op.NewText); err != nil {
			h.mu.Lock()
			h.redoStack = append(h.redoStack, e)
			h.mu.Unlock()
			return 0, err
		}
	}

	h.mu.Lock()
	h.undoStack = append(h.undoStack, e)
	h.mu.Unlock()
	return firstStart(e), nil
}

// caretAfterUndo places the caret at the start of the reverted change.
func caretAfterUndo(e *entry) int {
	start := firstStart(e)
	if e.caretBefore < start {
		return e.caretBefore
	}
	return start
}

func firstStart(e *entry) int {
	start := e.ops[0].Start
	for _, op := range e.ops[1:] {
		if op.Start < start {
			start = op.Start
		}
	}
	return start
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.depth = 0
	h.group = nil
}

// GroupScope provides a convenient way to group operations using defer.
//
//	defer h.GroupScope("change", caret).End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string, caretBefore int) *GroupScope {
	h.BeginGroup(name, caretBefore)
	return &GroupScope{history: h, active: true}
}

// End ends the group scope. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}
