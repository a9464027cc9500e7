package buffer

import (
	"errors"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	b := NewBufferFromString("one\ntwo\r\n\nfour")

	if got := b.String(); got != "one\ntwo\n\nfour" {
		t.Fatalf("String() = %q", got)
	}
	if got := b.LineCount(); got != 4 {
		t.Errorf("LineCount() = %d, want 4", got)
	}

	tests := []struct {
		line       int
		start, end int
		text       string
	}{
		{0, 0, 3, "one"},
		{1, 4, 7, "two"},
		{2, 8, 8, ""},
		{3, 9, 13, "four"},
	}
	for _, tt := range tests {
		start, err := b.LineStart(tt.line)
		if err != nil || start != tt.start {
			t.Errorf("LineStart(%d) = %d, %v; want %d", tt.line, start, err, tt.start)
		}
		end, err := b.LineEnd(tt.line)
		if err != nil || end != tt.end {
			t.Errorf("LineEnd(%d) = %d, %v; want %d", tt.line, end, err, tt.end)
		}
		text, err := LineText(b, tt.line)
		if err != nil || text != tt.text {
			t.Errorf("LineText(%d) = %q, %v; want %q", tt.line, text, err, tt.text)
		}
	}

	for offset, want := range map[int]int{0: 0, 3: 0, 4: 1, 8: 2, 9: 3, 13: 3} {
		if got, err := b.LineOf(offset); err != nil || got != want {
			t.Errorf("LineOf(%d) = %d, %v; want %d", offset, got, err, want)
		}
	}

	if col, _ := Column(b, 6); col != 2 {
		t.Errorf("Column(6) = %d, want 2", col)
	}
}

func TestEmptyBufferHasOneLine(t *testing.T) {
	b := NewBuffer()
	if b.LineCount() != 1 || b.Len() != 0 {
		t.Errorf("LineCount() = %d, Len() = %d", b.LineCount(), b.Len())
	}
	if line, err := b.LineOf(0); err != nil || line != 0 {
		t.Errorf("LineOf(0) = %d, %v", line, err)
	}
}

func TestOffsetsAreRunes(t *testing.T) {
	b := NewBufferFromString("héllo")
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}
	r, err := b.RuneAt(1)
	if err != nil || r != 'é' {
		t.Errorf("RuneAt(1) = %q, %v", r, err)
	}
	if err := b.Delete(1, 2); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hllo" {
		t.Errorf("String() = %q", b.String())
	}
}

func TestOutOfRangeIsNotClamped(t *testing.T) {
	b := NewBufferFromString("abc")

	checks := []error{
		func() error { _, err := b.Text(0, 4); return err }(),
		func() error { _, err := b.RuneAt(3); return err }(),
		func() error { _, err := b.LineOf(-1); return err }(),
		b.Insert(5, "x"),
		b.Delete(2, 9),
	}
	for i, err := range checks {
		if !errors.Is(err, ErrOffsetOutOfRange) {
			t.Errorf("check %d: error = %v, want ErrOffsetOutOfRange", i, err)
		}
	}

	if _, err := b.LineStart(1); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("LineStart(1) error = %v", err)
	}
	if _, err := b.Text(2, 1); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("Text(2, 1) error = %v", err)
	}
	if b.String() != "abc" {
		t.Errorf("failed edits changed the buffer: %q", b.String())
	}
}

func TestGuards(t *testing.T) {
	b := NewBufferFromString("aaa\nbbb\nccc")
	if err := b.Guard(4, 8); err != nil {
		t.Fatal(err)
	}

	if !b.IsGuarded(2, 5) {
		t.Error("overlapping range should be guarded")
	}
	if b.IsGuarded(0, 4) {
		t.Error("range ending at guard start should be free")
	}
	if b.IsGuarded(4, 4) {
		t.Error("insertion at guard start should be free")
	}
	if err := b.Delete(3, 5); !errors.Is(err, ErrGuarded) {
		t.Errorf("Delete() error = %v, want ErrGuarded", err)
	}

	// Edits before the guard move it.
	if err := b.Insert(0, "xx"); err != nil {
		t.Fatal(err)
	}
	if !b.IsGuarded(6, 7) || b.IsGuarded(4, 6) {
		t.Error("guard did not move with the insertion")
	}
}

func TestUndoRedo(t *testing.T) {
	b := NewBufferFromString("Hello, World!")

	b.BeginGroup("change", 0)
	if err := b.Insert(7, "Beautiful "); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(0, 7); err != nil {
		t.Fatal(err)
	}
	b.EndGroup()

	if b.String() != "Beautiful World!" {
		t.Fatalf("String() = %q", b.String())
	}

	caret, err := b.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if b.String() != "Hello, World!" || caret != 0 {
		t.Errorf("after undo = %q caret %d", b.String(), caret)
	}

	if _, err := b.Redo(); err != nil {
		t.Fatal(err)
	}
	if b.String() != "Beautiful World!" {
		t.Errorf("after redo = %q", b.String())
	}
	if !b.Modified() || b.Revision() == 0 {
		t.Error("edits should mark the buffer modified")
	}
}

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("x\r\ny"), WithPath("notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if b.String() != "x\ny" || b.Path() != "notes.txt" {
		t.Errorf("got %q path %q", b.String(), b.Path())
	}
}
