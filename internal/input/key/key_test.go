package key

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestNewRuneEventNormalizes(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		mods Modifier
		want Event
	}{
		{"shift folds into rune", 'a', ModShift, Event{Key: KeyRune, Rune: 'A'}},
		{"ctrl lowercases", 'W', ModCtrl, Event{Key: KeyRune, Rune: 'w', Modifiers: ModCtrl}},
		{"control char", 0x17, ModNone, Event{Key: KeyRune, Rune: 'w', Modifiers: ModCtrl}},
		{"tab", '\t', ModNone, Event{Key: KeyTab}},
		{"carriage return", '\r', ModNone, Event{Key: KeyEnter}},
		{"escape byte", 0x1b, ModNone, Event{Key: KeyEscape}},
		{"delete byte", 0x7f, ModNone, Event{Key: KeyBackspace}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRuneEvent(tt.r, tt.mods); got != tt.want {
				t.Errorf("NewRuneEvent(%q, %v) = %#v, want %#v", tt.r, tt.mods, got, tt.want)
			}
		})
	}
}

func TestEventPredicates(t *testing.T) {
	if !Char('x').IsChar() {
		t.Error("Char('x').IsChar() = false")
	}
	if Ctrl('x').IsChar() {
		t.Error("Ctrl('x').IsChar() = true")
	}
	if !Char('0').IsDigit() || Char('a').IsDigit() {
		t.Error("IsDigit mismatch")
	}
	if !Special(KeyEscape).IsEscape() || !Ctrl('[').IsEscape() {
		t.Error("IsEscape should accept <Esc> and <C-[>")
	}
	if r, ok := Special(KeyTab).CharValue(); !ok || r != '\t' {
		t.Errorf("Tab.CharValue() = %q, %v", r, ok)
	}
	if _, ok := Special(KeyLeft).CharValue(); ok {
		t.Error("Left.CharValue() should not be a character")
	}
}

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"Esc", KeyEscape},
		{"RETURN", KeyEnter},
		{"pgdn", KeyPageDown},
		{" f12 ", KeyF12},
		{"bogus", KeyNone},
	}
	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSequenceHelpers(t *testing.T) {
	seq := MustDecode("dw")
	if !seq.HasPrefix(MustDecode("d")) {
		t.Error("HasPrefix(d) = false")
	}
	if seq.HasPrefix(MustDecode("dwx")) {
		t.Error("HasPrefix longer than sequence should be false")
	}

	clone := seq.Clone()
	clone[0] = Char('c')
	if seq[0] != Char('d') {
		t.Error("Clone shares storage")
	}

	if got := FromCount(120).String(); got != "120" {
		t.Errorf("FromCount(120) = %q", got)
	}
	if FromCount(0) != nil {
		t.Error("FromCount(0) should be empty")
	}

	text, ok := FromText("a<b\n").AsText()
	if !ok || text != "a<b\n" {
		t.Errorf("FromText round trip = %q, %v", text, ok)
	}
	if got := FromText("<Esc>").String(); got != "<lt>Esc>" {
		t.Errorf("FromText should not decode notation, got %q", got)
	}
}

func TestFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want Event
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), Char('q')},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), Special(KeyEscape)},
		{"ctrl r", tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl), Ctrl('r')},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), NewSpecialEvent(KeyTab, ModShift)},
		{"f5", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), Special(KeyF5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromTcell(tt.ev)
			if !ok {
				t.Fatalf("FromTcell() not ok")
			}
			if got != tt.want {
				t.Errorf("FromTcell() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
