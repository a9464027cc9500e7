package input

import (
	"testing"
	"time"

	"github.com/dshills/modalkit/internal/input/key"
)

type orderHook struct {
	BaseHook
	name  string
	order *[]string
}

func (h orderHook) PreKey(*key.Event, Status) bool {
	*h.order = append(*h.order, h.name)
	return false
}

func TestHookManagerPriority(t *testing.T) {
	m := NewHookManager()
	var order []string

	m.RegisterWithPriority(orderHook{name: "low", order: &order}, HookPriorityLow)
	m.RegisterWithPriority(orderHook{name: "highest", order: &order}, HookPriorityHighest)
	m.Register(orderHook{name: "normal", order: &order})

	ev := key.Char('a')
	if m.RunPreKey(&ev, Status{}) {
		t.Fatal("no hook should consume the key")
	}
	want := []string{"highest", "normal", "low"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestHookManagerNamedReplace(t *testing.T) {
	m := NewHookManager()

	first := m.RegisterNamed(BaseHook{}, "logger")
	second := m.RegisterNamed(BaseHook{}, "logger")

	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}
	if _, ok := m.Get(first); ok {
		t.Error("replaced hook should be gone")
	}
	if _, ok := m.Get(second); !ok {
		t.Error("replacement should be registered")
	}
	if !m.UnregisterByName("logger") {
		t.Error("UnregisterByName should succeed")
	}
	if m.UnregisterByName("logger") {
		t.Error("second UnregisterByName should fail")
	}
}

func TestHookManagerDisabled(t *testing.T) {
	m := NewHookManager()
	m.Register(FilterHook{KeyFilter: func(*key.Event, Status) bool { return true }})

	ev := key.Char('x')
	if !m.RunPreKey(&ev, Status{}) {
		t.Error("filter should consume the key")
	}

	m.SetEnabled(false)
	if m.RunPreKey(&ev, Status{}) {
		t.Error("disabled hooks should not run")
	}
}

func TestHookRewritesKey(t *testing.T) {
	f := newFixture(t, "abc")
	f.eng.Hooks().Register(FuncHook{
		PreKeyFunc: func(ev *key.Event, _ Status) bool {
			if *ev == key.Char('X') {
				*ev = key.Char('x')
			}
			return false
		},
	})

	if err := f.eng.HandleNotation("X"); err != nil {
		t.Fatalf("HandleNotation: %v", err)
	}
	if got := f.text(); got != "bc" {
		t.Errorf("text = %q, want %q", got, "bc")
	}
}

func TestCommandFilter(t *testing.T) {
	f := newFixture(t, "abc")
	f.eng.Hooks().Register(FilterHook{
		CommandFilter: func(name string, _ Status) bool { return name == "delete-char" },
	})

	if err := f.eng.HandleNotation("2x"); err != nil {
		t.Fatalf("HandleNotation: %v", err)
	}
	if got := f.text(); got != "abc" {
		t.Errorf("text = %q, want %q", got, "abc")
	}
	if p := f.eng.PendingKeys(); p != "" {
		t.Errorf("PendingKeys = %q, want empty", p)
	}
}

func TestMetricsLatencyStats(t *testing.T) {
	m := NewMetrics()
	m.RecordKeyEvent(time.Millisecond)
	m.RecordKeyEvent(3 * time.Millisecond)

	snap := m.Snapshot()
	if snap.KeyEventsTotal != 2 {
		t.Errorf("KeyEventsTotal = %d, want 2", snap.KeyEventsTotal)
	}
	if snap.AvgKeyLatency != 2*time.Millisecond {
		t.Errorf("AvgKeyLatency = %v, want 2ms", snap.AvgKeyLatency)
	}
	if snap.PeakKeyLatency != 3*time.Millisecond {
		t.Errorf("PeakKeyLatency = %v, want 3ms", snap.PeakKeyLatency)
	}
	if h := m.HealthCheck(2 * time.Millisecond); h.Healthy {
		t.Error("peak above threshold should be unhealthy")
	}

	m.SetEnabled(false)
	m.RecordCommand()
	if m.CommandsTotal() != 0 {
		t.Error("disabled metrics should not count")
	}
}
