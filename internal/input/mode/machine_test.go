package mode

import (
	"testing"

	"github.com/dshills/modalkit/internal/input/key"
)

type testOperator string

func (o testOperator) Name() string { return string(o) }

func TestMachineStartsInNormal(t *testing.T) {
	m := NewMachine()
	if got := m.Current(); got != NormalMode {
		t.Errorf("Current() = %v, want normal", got)
	}
	if m.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", m.Depth())
	}
}

func TestMachineStackNeverEmpties(t *testing.T) {
	m := NewMachine()
	m.Push(InsertMode)
	m.Push(InsertNormalMode)

	if got := m.Pop(); got != InsertMode {
		t.Errorf("Pop() = %v, want insert", got)
	}
	if got := m.Pop(); got != NormalMode {
		t.Errorf("Pop() = %v, want normal", got)
	}
	if got := m.Pop(); got != NormalMode {
		t.Errorf("Pop() at floor = %v, want normal", got)
	}
	if m.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", m.Depth())
	}
}

func TestMachineSwitch(t *testing.T) {
	m := NewMachine()
	m.Switch(VisualMode(SelectChar))
	if m.Depth() != 2 {
		t.Fatalf("Switch from floor should push, depth = %d", m.Depth())
	}

	m.Switch(VisualMode(SelectLine))
	if got := m.Current(); got != VisualMode(SelectLine) {
		t.Errorf("Current() = %v, want visual-line", got)
	}
	if m.Depth() != 2 {
		t.Errorf("Switch should replace the top, depth = %d", m.Depth())
	}

	m.Switch(NormalMode)
	if m.Depth() != 1 || m.Current() != NormalMode {
		t.Errorf("Switch(normal) should unwind to the floor")
	}
}

func TestMachineRestore(t *testing.T) {
	m := NewMachine()
	m.Push(InsertMode)
	m.Push(InsertNormalMode)
	m.SetPendingOperator(testOperator("delete"))

	m.Restore(InsertNormalMode)
	if got := m.Current(); got != InsertNormalMode {
		t.Errorf("Current() = %v, want insert-normal", got)
	}
	if m.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", m.Depth())
	}

	m.Reset()
	m.Restore(ReplaceMode)
	if m.Current() != ReplaceMode || m.Depth() != 2 {
		t.Errorf("Restore of an absent mode should sit on the floor, got %v depth %d", m.Current(), m.Depth())
	}
}

func TestMachineOnChange(t *testing.T) {
	m := NewMachine()

	var changes []string
	unregister := m.OnChange(func(from, to Mode) {
		changes = append(changes, from.Name()+">"+to.Name())
	})

	m.Push(InsertMode)
	m.Switch(InsertMode)
	m.Pop()
	unregister()
	m.Push(ReplaceMode)

	want := []string{"normal>insert", "insert>normal"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}

func TestAccumulateDigit(t *testing.T) {
	m := NewMachine()
	for _, d := range []int{1, 2, 3} {
		m.AccumulateDigit(d)
	}
	if c, ok := m.Count(); !ok || c != 123 {
		t.Errorf("Count() = %d, %v, want 123", c, ok)
	}

	if got := m.DeleteDigit(); got != 12 {
		t.Errorf("DeleteDigit() = %d, want 12", got)
	}
}

func TestAccumulateDigitSaturates(t *testing.T) {
	m := NewMachine()
	m.SetMaxCount(500)

	m.AccumulateDigit(4)
	m.AccumulateDigit(9)
	if got := m.AccumulateDigit(9); got != 499 {
		t.Errorf("AccumulateDigit() = %d, want 499", got)
	}
	if got := m.AccumulateDigit(7); got != 500 {
		t.Errorf("AccumulateDigit() = %d, want saturated 500", got)
	}
	if got := m.AccumulateDigit(1); got != 500 {
		t.Errorf("AccumulateDigit() after saturation = %d, want 500", got)
	}

	m = NewMachine()
	for i := 0; i < 30; i++ {
		m.AccumulateDigit(9)
	}
	if c, _ := m.Count(); c != DefaultMaxCount {
		t.Errorf("Count() = %d, want %d", c, DefaultMaxCount)
	}
}

func TestSetPendingOperator(t *testing.T) {
	m := NewMachine()
	m.AccumulateDigit(2)
	m.SetPendingRegister('a')
	m.AppendKey(key.Char('d'))
	m.SetPendingOperator(testOperator("delete"))

	if got := m.Current(); got != OperatorPendingMode {
		t.Fatalf("Current() = %v, want operator-pending", got)
	}

	p := m.Pending()
	if p.Operator.Name() != "delete" || p.OperatorCount != 2 || p.Count != 0 {
		t.Errorf("Pending() = %+v", p)
	}
	if p.Register != 'a' {
		t.Errorf("Register = %q, want 'a'", p.Register)
	}
	if p.OperatorKeys.String() != "d" || len(p.Keys) != 0 {
		t.Errorf("keys = %q / %q", p.OperatorKeys, p.Keys)
	}

	m.ResetPending()
	if got := m.Current(); got != NormalMode {
		t.Errorf("ResetPending() left mode %v", got)
	}
	if _, ok := m.PendingOperator(); ok {
		t.Error("ResetPending() kept the operator")
	}
	if m.Register() != 0 {
		t.Error("ResetPending() kept the register")
	}
}

func TestModeNames(t *testing.T) {
	tests := []struct {
		mode Mode
		name string
		set  Set
	}{
		{NormalMode, "normal", SetNormal},
		{InsertMode, "insert", SetInsert},
		{ReplaceMode, "replace", SetInsert},
		{VisualMode(SelectBlock), "visual-block", SetVisual},
		{SelectMode(SelectLine), "select-line", SetSelect},
		{OperatorPendingMode, "operator-pending", SetOperatorPending},
		{CommandLineMode, "command", SetCommandLine},
		{InsertNormalMode, "insert-normal", SetNormal},
		{Mode{Kind: InsertVisual}, "insert-visual", SetVisual},
	}

	for _, tt := range tests {
		if got := tt.mode.Name(); got != tt.name {
			t.Errorf("Name() = %q, want %q", got, tt.name)
		}
		if got := SetOf(tt.mode); got != tt.set {
			t.Errorf("SetOf(%s) = %v, want %v", tt.name, got, tt.set)
		}
	}
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		prefix  string
		want    Set
		wantErr bool
	}{
		{"", SetNVO, false},
		{"n", SetNormal, false},
		{"v", SetVisual | SetSelect, false},
		{"x", SetVisual, false},
		{"i", SetInsert, false},
		{"!", SetInsert | SetCommandLine, false},
		{"nxo", SetNormal | SetVisual | SetOperatorPending, false},
		{"q", SetNone, true},
	}

	for _, tt := range tests {
		got, err := ParseSet(tt.prefix)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSet(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSet(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}

	if !SetNVO.Contains(VisualMode(SelectChar)) || SetNVO.Contains(InsertMode) {
		t.Error("SetNVO.Contains mismatch")
	}
}
