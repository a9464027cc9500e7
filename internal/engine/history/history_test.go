package history

import (
	"errors"
	"testing"
)

// textTarget is a minimal Target over a rune slice.
type textTarget struct {
	text []rune
	fail bool
}

func (t *textTarget) ApplyReplace(start, end int, text string) error {
	if t.fail {
		return errors.New("refused")
	}
	out := append([]rune{}, t.text[:start]...)
	out = append(out, []rune(text)...)
	t.text = append(out, t.text[end:]...)
	return nil
}

// apply performs op on t and records it.
func apply(t *testing.T, h *History, tt *textTarget, op *Operation, caret int) {
	t.Helper()
	if err := tt.ApplyReplace(op.Start, op.End(), op.NewText); err != nil {
		t.Fatalf("ApplyReplace() error = %v", err)
	}
	h.Record(op, caret)
}

func TestOperationKinds(t *testing.T) {
	insert := NewInsertOperation(5, "héllo")
	if !insert.IsInsert() || insert.IsDelete() {
		t.Error("insert kind mismatch")
	}
	if insert.NewEnd() != 10 || insert.Delta() != 5 {
		t.Errorf("NewEnd() = %d, Delta() = %d", insert.NewEnd(), insert.Delta())
	}

	del := NewDeleteOperation(2, "ab")
	if !del.IsDelete() || del.End() != 4 {
		t.Error("delete kind mismatch")
	}

	inv := del.Invert()
	if !inv.IsInsert() || inv.NewText != "ab" || inv.Start != 2 {
		t.Errorf("Invert() = %+v", inv)
	}

	if !NewOperation(0, "x", "x").IsNoop() {
		t.Error("identical replacement should be a no-op")
	}
}

func TestUndoRedo(t *testing.T) {
	h := NewHistory(10)
	tt := &textTarget{text: []rune("hello world")}

	apply(t, h, tt, NewDeleteOperation(0, "hello "), 0)
	if got := string(tt.text); got != "world" {
		t.Fatalf("text = %q", got)
	}

	caret, err := h.Undo(tt)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := string(tt.text); got != "hello world" {
		t.Errorf("after undo text = %q", got)
	}
	if caret != 0 {
		t.Errorf("Undo() caret = %d, want 0", caret)
	}

	if _, err := h.Redo(tt); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := string(tt.text); got != "world" {
		t.Errorf("after redo text = %q", got)
	}

	if _, err := h.Redo(tt); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestUndoEmpty(t *testing.T) {
	h := NewHistory(0)
	if _, err := h.Undo(&textTarget{}); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
}

func TestGroupIsOneUndoUnit(t *testing.T) {
	h := NewHistory(10)
	tt := &textTarget{text: []rune("abc")}

	h.BeginGroup("insert", 3)
	h.BeginGroup("nested", 3)
	apply(t, h, tt, NewInsertOperation(3, "d"), 3)
	h.EndGroup()
	apply(t, h, tt, NewInsertOperation(4, "e"), 4)
	if !h.IsGrouping() {
		t.Error("outer group should still be open")
	}
	h.EndGroup()

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	if _, err := h.Undo(tt); err != nil {
		t.Fatal(err)
	}
	if got := string(tt.text); got != "abc" {
		t.Errorf("text = %q, want abc", got)
	}
}

func TestEmptyGroupIsDropped(t *testing.T) {
	h := NewHistory(10)
	defer func() {
		if h.UndoCount() != 0 {
			t.Errorf("UndoCount() = %d, want 0", h.UndoCount())
		}
	}()
	h.GroupScope("nothing", 0).End()
}

func TestRecordClearsRedo(t *testing.T) {
	h := NewHistory(10)
	tt := &textTarget{text: []rune("ab")}

	apply(t, h, tt, NewDeleteOperation(0, "a"), 0)
	if _, err := h.Undo(tt); err != nil {
		t.Fatal(err)
	}
	apply(t, h, tt, NewDeleteOperation(1, "b"), 1)

	if h.CanRedo() {
		t.Error("Record should clear the redo stack")
	}
}

func TestMaxEntries(t *testing.T) {
	h := NewHistory(2)
	tt := &textTarget{}
	for i := 0; i < 5; i++ {
		apply(t, h, tt, NewInsertOperation(0, "x"), 0)
	}
	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}
}

func TestUndoFailureRestoresEntry(t *testing.T) {
	h := NewHistory(10)
	tt := &textTarget{text: []rune("a")}
	apply(t, h, tt, NewInsertOperation(1, "b"), 1)

	tt.fail = true
	if _, err := h.Undo(tt); err == nil {
		t.Fatal("Undo() should fail")
	}
	if !h.CanUndo() {
		t.Error("failed undo should keep the entry")
	}
}
