package app

import (
	"fmt"
	"testing"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
)

var _ execctx.Notifier = (*MessageLog)(nil)

func TestMessageLog(t *testing.T) {
	m := NewMessageLog(nil, 3)
	if _, ok := m.Last(); ok {
		t.Fatal("empty log has a last message")
	}

	for i := range 4 {
		m.StatusMessage(fmt.Sprintf("msg %d", i))
	}
	m.ReportError("E492: Not an editor command")

	got := m.Messages()
	want := []Message{
		{Text: "msg 2"},
		{Text: "msg 3"},
		{Text: "E492: Not an editor command", Error: true},
	}
	if len(got) != len(want) {
		t.Fatalf("Messages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Messages()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	last, _ := m.Last()
	if !last.Error {
		t.Error("last message should be an error")
	}

	m.Clear()
	if len(m.Messages()) != 0 {
		t.Error("Clear() kept messages")
	}
	if m.Total() != 5 {
		t.Errorf("Total() = %d, want 5", m.Total())
	}
}

func TestMessageLogDefaultLimit(t *testing.T) {
	m := NewMessageLog(NullLogger, 0)
	for range 150 {
		m.StatusMessage("x")
	}
	if n := len(m.Messages()); n != 100 {
		t.Errorf("len(Messages()) = %d, want 100", n)
	}
}
