package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects events delivered to a handler.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// waitFor polls until cond holds or a second has passed.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNew(t *testing.T) {
	w := New()
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}
	w = New(WithDebounce(0), WithDebounce(-time.Second))
	if w.debounce != 0 {
		t.Errorf("debounce = %v, want 0", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")

	w := New()
	if err := w.Watch(a); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(b); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(a); err != nil {
		t.Fatal(err)
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Fatalf("watched %d files, want 2", got)
	}
	if w.dirs[dir] != 2 {
		t.Errorf("dir count = %d, want 2", w.dirs[dir])
	}

	if err := w.Unwatch(a); err != nil {
		t.Fatal(err)
	}
	if err := w.Unwatch(b); err != nil {
		t.Fatal(err)
	}
	if len(w.WatchedFiles()) != 0 || len(w.dirs) != 0 {
		t.Errorf("files=%v dirs=%v, want none", w.WatchedFiles(), w.dirs)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := New()
	if err := w.Watch(filepath.Join(t.TempDir(), "x.toml")); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsRunning() {
		t.Error("watcher should be running")
	}
	if err := w.Start(); err != ErrRunning {
		t.Errorf("second Start = %v, want ErrRunning", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("watcher should be stopped")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestWatcher_DetectsFileModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modalkit.toml")
	if err := os.WriteFile(path, []byte("shiftwidth = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(WithDebounce(0))
	var rec recorder
	w.OnChange(rec.handle)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("shiftwidth = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("did not receive file change event")
	}
	ev := rec.snapshot()[0]
	if ev.Path != path {
		t.Errorf("event.Path = %q, want %q", ev.Path, path)
	}
	if ev.Op != OpWrite {
		t.Errorf("event.Op = %v, want write", ev.Op)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modalkit.toml")

	w := New(WithDebounce(0))
	var rec recorder
	w.OnChange(rec.handle)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("timeout = true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("did not receive file creation event")
	}
	for _, ev := range rec.snapshot() {
		if ev.Path != path {
			t.Errorf("unexpected event for %s", ev.Path)
		}
	}
	if rec.snapshot()[0].Op != OpCreate {
		t.Errorf("first event = %v, want create", rec.snapshot()[0].Op)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modalkit.toml")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(WithDebounce(100 * time.Millisecond))
	var rec recorder
	w.OnChange(rec.handle)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := range 5 {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("did not receive debounced event")
	}
	time.Sleep(200 * time.Millisecond)
	if got := len(rec.snapshot()); got != 1 {
		t.Errorf("received %d events, want 1", got)
	}
}

func TestWatcher_HandlerPanic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modalkit.toml")

	var errMu sync.Mutex
	var errs []error
	w := New(WithDebounce(0), WithErrorHandler(func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}))
	var rec recorder
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(rec.handle)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("second handler was not called")
	}
	errMu.Lock()
	defer errMu.Unlock()
	if len(errs) == 0 {
		t.Error("panic was not reported")
	}
}

func TestQueueEventCoalesces(t *testing.T) {
	w := New()
	w.queueEvent(Event{Path: "/a", Op: OpCreate})
	w.queueEvent(Event{Path: "/a", Op: OpWrite})
	w.queueEvent(Event{Path: "/b", Op: OpWrite})
	w.queueEvent(Event{Path: "/b", Op: OpRemove})

	got := map[string]Operation{}
	for _, ev := range w.takePending() {
		got[ev.Path] = ev.Op
	}
	if got["/a"] != OpCreate {
		t.Errorf("/a = %v, want create", got["/a"])
	}
	if got["/b"] != OpRemove {
		t.Errorf("/b = %v, want remove", got["/b"])
	}
	if len(w.takePending()) != 0 {
		t.Error("pending events should be drained")
	}
}
