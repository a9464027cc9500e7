package macro

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/register"
)

func newStore() *register.Store {
	return register.NewStore(register.NewShared())
}

func recordKeys(r *Recorder, s string) {
	for _, ev := range key.MustDecode(s) {
		r.Record(ev)
	}
}

// ==================== Recorder Tests ====================

func TestRecorderStartStop(t *testing.T) {
	store := newStore()
	r := NewRecorder(store)

	if r.IsRecording() {
		t.Fatal("should not be recording initially")
	}

	if err := r.StartRecording('a'); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if !r.IsRecording() {
		t.Error("should be recording after start")
	}
	if r.CurrentRegister() != 'a' {
		t.Errorf("CurrentRegister = %q, want 'a'", r.CurrentRegister())
	}

	recordKeys(r, "3lq")
	if r.CurrentRecordingLength() != 3 {
		t.Errorf("CurrentRecordingLength = %d, want 3", r.CurrentRecordingLength())
	}

	name, keys, err := r.StopRecording(1)
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if name != 'a' {
		t.Errorf("register = %q, want 'a'", name)
	}
	if keys.String() != "3l" {
		t.Errorf("keys = %q, want %q", keys.String(), "3l")
	}
	if r.IsRecording() {
		t.Error("should not be recording after stop")
	}

	p, ok := store.Read('a')
	if !ok {
		t.Fatal("register a should be set")
	}
	if p.Text != "3l" || p.Sequence().String() != "3l" {
		t.Errorf("payload = %q / %q", p.Text, p.Sequence().String())
	}
}

func TestRecorderErrors(t *testing.T) {
	r := NewRecorder(newStore())

	if _, _, err := r.StopRecording(0); !errors.Is(err, ErrNotRecording) {
		t.Errorf("StopRecording without start: got %v", err)
	}
	if err := r.StartRecording('_'); !errors.Is(err, ErrNotRecordable) {
		t.Errorf("StartRecording('_'): got %v", err)
	}
	if err := r.StartRecording('%'); !errors.Is(err, ErrNotRecordable) {
		t.Errorf("StartRecording('%%'): got %v", err)
	}

	if err := r.StartRecording('b'); err != nil {
		t.Fatal(err)
	}
	if err := r.StartRecording('c'); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording: got %v", err)
	}
}

func TestRecorderAppend(t *testing.T) {
	store := newStore()
	r := NewRecorder(store)

	_ = r.StartRecording('a')
	recordKeys(r, "xq")
	if _, _, err := r.StopRecording(1); err != nil {
		t.Fatal(err)
	}

	_ = r.StartRecording('A')
	recordKeys(r, "<Esc>jq")
	if _, _, err := r.StopRecording(1); err != nil {
		t.Fatal(err)
	}

	p, _ := store.Read('a')
	if got := p.Sequence().String(); got != "x<Esc>j" {
		t.Errorf("appended macro = %q, want %q", got, "x<Esc>j")
	}
}

func TestRecorderCancel(t *testing.T) {
	store := newStore()
	r := NewRecorder(store)

	_ = r.StartRecording('a')
	recordKeys(r, "dd")
	r.Cancel()

	if r.IsRecording() {
		t.Error("should not be recording after cancel")
	}
	if _, ok := store.Read('a'); ok {
		t.Error("cancelled recording should not be saved")
	}

	// Record is ignored when not recording.
	r.Record(key.Char('x'))
	if r.CurrentRecordingLength() != 0 {
		t.Error("Record should be ignored when not recording")
	}
}

// ==================== Player Tests ====================

func collect(out *key.Sequence) FeedFunc {
	return func(keys key.Sequence) error {
		*out = append(*out, keys...)
		return nil
	}
}

func TestPlayerPlay(t *testing.T) {
	store := newStore()
	_ = store.Write('a', register.FromKeys(key.MustDecode("3l")), false)
	p := NewPlayer(store)

	var got key.Sequence
	if err := p.Play(context.Background(), 'a', 2, collect(&got)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if got.String() != "3l3l" {
		t.Errorf("played %q, want %q", got.String(), "3l3l")
	}
	if p.LastRegister() != 'a' {
		t.Errorf("LastRegister = %q, want 'a'", p.LastRegister())
	}
	if p.IsPlaying() {
		t.Error("should not be playing after Play returns")
	}
}

func TestPlayerTextRegister(t *testing.T) {
	store := newStore()
	_ = store.Write('b', register.Text("i<x"), false)
	p := NewPlayer(store)

	var got key.Sequence
	if err := p.Play(context.Background(), 'b', 1, collect(&got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1] != key.Char('<') {
		t.Errorf("text register should be typed literally, got %q", got.String())
	}
}

func TestPlayerLastPlayed(t *testing.T) {
	store := newStore()
	p := NewPlayer(store)

	var got key.Sequence
	if err := p.Play(context.Background(), LastPlayed, 1, collect(&got)); !errors.Is(err, ErrNoPreviousMacro) {
		t.Errorf("@@ before any macro: got %v", err)
	}

	_ = store.Write('q', register.FromKeys(key.MustDecode("j")), false)
	_ = p.Play(context.Background(), 'q', 1, collect(&got))
	got = nil
	if err := p.Play(context.Background(), LastPlayed, 3, collect(&got)); err != nil {
		t.Fatal(err)
	}
	if got.String() != "jjj" {
		t.Errorf("@@ played %q, want %q", got.String(), "jjj")
	}
}

func TestPlayerCommandLine(t *testing.T) {
	store := newStore()
	store.SetLastCommand("noh")
	p := NewPlayer(store)

	var got key.Sequence
	if err := p.Play(context.Background(), CommandLine, 1, collect(&got)); err != nil {
		t.Fatal(err)
	}
	if got.String() != ":noh<CR>" {
		t.Errorf("@: played %q, want %q", got.String(), ":noh<CR>")
	}
}

func TestPlayerStopsAtFirstError(t *testing.T) {
	store := newStore()
	_ = store.Write('a', register.FromKeys(key.MustDecode("x")), false)
	p := NewPlayer(store)

	boom := errors.New("boom")
	calls := 0
	err := p.Play(context.Background(), 'a', 5, func(key.Sequence) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Play error = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("feed called %d times, want 2", calls)
	}
}

func TestPlayerErrors(t *testing.T) {
	p := NewPlayer(newStore())
	ctx := context.Background()

	if err := p.Play(ctx, 'z', 1, collect(new(key.Sequence))); !errors.Is(err, ErrEmptyRegister) {
		t.Errorf("empty register: got %v", err)
	}
	if err := p.Play(ctx, '!', 1, collect(new(key.Sequence))); !errors.Is(err, register.ErrInvalidRegister) {
		t.Errorf("invalid register: got %v", err)
	}
	if err := p.Play(ctx, 'a', 1, nil); err == nil {
		t.Error("nil feed should fail")
	}
}

func TestPlayerCancelledContext(t *testing.T) {
	store := newStore()
	_ = store.Write('a', register.FromKeys(key.MustDecode("x")), false)
	p := NewPlayer(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Play(ctx, 'a', 1, collect(new(key.Sequence))); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func TestPlayerRecursionLimit(t *testing.T) {
	store := newStore()
	_ = store.Write('a', register.FromKeys(key.MustDecode("@a")), false)
	p := NewPlayer(store)
	p.SetMaxDepth(5)

	var feed FeedFunc
	depth := 0
	feed = func(key.Sequence) error {
		depth++
		return p.Play(context.Background(), 'a', 1, feed)
	}

	err := p.Play(context.Background(), 'a', 1, feed)
	if !errors.Is(err, ErrTooDeep) {
		t.Errorf("recursive macro: got %v, want ErrTooDeep", err)
	}
	if depth != 5 {
		t.Errorf("nested feeds = %d, want 5", depth)
	}
	if p.IsPlaying() {
		t.Error("depth should unwind")
	}
}

// ==================== Repeater Tests ====================

func TestChangeKeys(t *testing.T) {
	c := Change{
		Register:    'a',
		Count:       2,
		OpKeys:      key.MustDecode("c"),
		MotionCount: 3,
		MotionKeys:  key.MustDecode("w"),
		Tail:        key.MustDecode("bar<Esc>"),
	}

	if got := c.Keys().String(); got != `"a2c3wbar<Esc>` {
		t.Errorf("Keys = %q", got)
	}
	if got := c.WithCount(4).Keys().String(); got != `"a4cwbar<Esc>` {
		t.Errorf("WithCount(4).Keys = %q", got)
	}
	if got := c.WithCount(0).Keys().String(); got != `"a2c3wbar<Esc>` {
		t.Errorf("WithCount(0) should keep counts, got %q", got)
	}
}

func TestRepeaterRepeat(t *testing.T) {
	r := NewRepeater()

	if err := r.Repeat(0, func(Change) error { return nil }); !errors.Is(err, ErrNothingToRepeat) {
		t.Errorf("empty repeater: got %v", err)
	}

	r.NoteRepeatable(Change{OpKeys: key.MustDecode("x"), Count: 2})

	var replayed []string
	replay := func(c Change) error {
		if !r.IsReplaying() {
			t.Error("IsReplaying should be true during replay")
		}
		// Changes noted during replay are ignored.
		r.NoteRepeatable(Change{OpKeys: key.MustDecode("dd")})
		replayed = append(replayed, c.Keys().String())
		return nil
	}

	if err := r.Repeat(0, replay); err != nil {
		t.Fatal(err)
	}
	if err := r.Repeat(5, replay); err != nil {
		t.Fatal(err)
	}
	if err := r.Repeat(0, replay); err != nil {
		t.Fatal(err)
	}

	want := []string{"2x", "5x", "5x"}
	for i := range want {
		if replayed[i] != want[i] {
			t.Errorf("repeat %d = %q, want %q", i, replayed[i], want[i])
		}
	}
}

func TestRepeaterNested(t *testing.T) {
	r := NewRepeater()
	r.NoteRepeatable(Change{OpKeys: key.MustDecode("x")})

	err := r.Repeat(0, func(Change) error {
		return r.Repeat(0, func(Change) error { return nil })
	})
	if !errors.Is(err, ErrNestedRepeat) {
		t.Errorf("nested repeat: got %v", err)
	}
}

func TestRepeaterPutAdvancesRegister(t *testing.T) {
	r := NewRepeater()
	r.NoteRepeatable(Change{Register: '1', OpKeys: key.MustDecode("p"), Put: true})

	var regs []rune
	for i := 0; i < 3; i++ {
		_ = r.Repeat(0, func(c Change) error {
			regs = append(regs, c.Register)
			return nil
		})
	}
	if string(regs) != "234" {
		t.Errorf("registers = %q, want %q", string(regs), "234")
	}
}

func TestRepeaterSession(t *testing.T) {
	r := NewRepeater()

	r.BeginSession(Change{OpKeys: key.MustDecode("c"), MotionKeys: key.MustDecode("w")})
	if !r.InSession() {
		t.Fatal("session should be open")
	}
	for _, ev := range key.MustDecode("bar") {
		r.RecordInsertKey(ev)
	}
	c, ok := r.EndSession(key.Special(key.KeyEscape))
	if !ok {
		t.Fatal("EndSession should report the change")
	}
	if c.Keys().String() != "cwbar<Esc>" {
		t.Errorf("session change = %q", c.Keys().String())
	}

	last, ok := r.Last()
	if !ok || last.Keys().String() != "cwbar<Esc>" {
		t.Errorf("Last = %q, %v", last.Keys().String(), ok)
	}

	if _, ok := r.EndSession(key.Special(key.KeyEscape)); ok {
		t.Error("EndSession without a session should report false")
	}
}

func TestRepeaterSessionSuppressedDuringReplay(t *testing.T) {
	r := NewRepeater()
	r.NoteRepeatable(Change{OpKeys: key.MustDecode("i"), Tail: key.MustDecode("x<Esc>")})

	_ = r.Repeat(0, func(Change) error {
		r.BeginSession(Change{OpKeys: key.MustDecode("i")})
		r.RecordInsertKey(key.Char('y'))
		r.EndSession(key.Special(key.KeyEscape))
		return nil
	})

	last, _ := r.Last()
	if last.Keys().String() != "ix<Esc>" {
		t.Errorf("slot overwritten during replay: %q", last.Keys().String())
	}
}
