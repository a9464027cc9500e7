package input

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/engine/history"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
)

type recordingNotifier struct {
	mu       sync.Mutex
	errors   []string
	messages []string
}

func (n *recordingNotifier) ReportError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) StatusMessage(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

type mapEvaluator map[string]string

func (m mapEvaluator) Evaluate(src string) (string, error) {
	if v, ok := m[src]; ok {
		return v, nil
	}
	return "", errors.New("undefined: " + src)
}

type fixture struct {
	eng   *Engine
	buf   *buffer.Buffer
	note  *recordingNotifier
	sched *ManualScheduler
}

func newFixture(t *testing.T, text string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		buf:   buffer.NewBufferFromString(text),
		note:  &recordingNotifier{},
		sched: NewManualScheduler(),
	}
	all := append([]Option{WithNotifier(f.note), WithScheduler(f.sched), WithID("test")}, opts...)
	eng, err := New(f.buf, DefaultConfig(), all...)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	f.eng = eng
	return f
}

func (f *fixture) keys(t *testing.T, notation string) {
	t.Helper()
	require.NoError(t, f.eng.HandleNotation(notation))
}

func (f *fixture) text() string {
	return f.buf.String()
}

func TestNewRejectsNilBuffer(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMotions(t *testing.T) {
	f := newFixture(t, "one two three\nfour")

	f.keys(t, "w")
	assert.Equal(t, 4, f.eng.Caret())
	f.keys(t, "2w")
	assert.Equal(t, 14, f.eng.Caret())
	f.keys(t, "gg$")
	assert.Equal(t, 12, f.eng.Caret())
	f.keys(t, "0")
	assert.Equal(t, 0, f.eng.Caret())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
}

func TestDeleteWordAndCountMultiplication(t *testing.T) {
	a := newFixture(t, "a b c d e f g h")
	a.keys(t, "2d3w")

	b := newFixture(t, "a b c d e f g h")
	b.keys(t, "d6w")

	assert.Equal(t, "g h", a.text())
	assert.Equal(t, b.text(), a.text())
}

func TestChangeWordThenRepeat(t *testing.T) {
	f := newFixture(t, "foo foo")

	f.keys(t, "cwbar<Esc>")
	assert.Equal(t, "bar foo", f.text())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
	assert.Equal(t, 2, f.eng.Caret())

	f.keys(t, "w.")
	assert.Equal(t, "bar bar", f.text())
	assert.Equal(t, 6, f.eng.Caret())
}

func TestOperatorCancelledByEscape(t *testing.T) {
	f := newFixture(t, "hello world")

	f.keys(t, "d<Esc>")
	assert.Equal(t, "hello world", f.text())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
	assert.Empty(t, f.eng.PendingKeys())

	p, ok := f.eng.Registers().Read('"')
	assert.True(t, !ok || p.IsEmpty(), "unnamed register written: %q", p.Text)
}

func TestUnmatchedKeyReportsError(t *testing.T) {
	f := newFixture(t, "abc")

	err := f.eng.HandleNotation("Q")
	var nm *keymap.NoMatchError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "Q", nm.Keys)
	assert.Len(t, f.note.errors, 1)
	assert.Equal(t, uint64(1), f.eng.Metrics().Snapshot().ErrorsTotal)

	// The engine keeps working.
	f.keys(t, "x")
	assert.Equal(t, "bc", f.text())
}

func TestInsertWithCount(t *testing.T) {
	f := newFixture(t, "")

	f.keys(t, "3ifoo<Esc>")
	assert.Equal(t, "foofoofoo", f.text())
	assert.Equal(t, 8, f.eng.Caret())

	p, ok := f.eng.Registers().Read('.')
	require.True(t, ok)
	assert.Equal(t, "foo", p.Text)
}

func TestInsertBackspaceAndOpenLine(t *testing.T) {
	f := newFixture(t, "one")

	f.keys(t, "oabx<BS>c<Esc>")
	assert.Equal(t, "one\nabc", f.text())
	assert.Equal(t, 6, f.eng.Caret())

	f.keys(t, "u")
	assert.Equal(t, "one", f.text())
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t, "abc")

	f.keys(t, "x")
	assert.Equal(t, "bc", f.text())
	f.keys(t, "u")
	assert.Equal(t, "abc", f.text())
	f.keys(t, "<C-r>")
	assert.Equal(t, "bc", f.text())

	f.keys(t, "u")
	assert.Equal(t, "abc", f.text())
	assert.ErrorIs(t, f.eng.HandleNotation("u"), history.ErrNothingToUndo)
}

func TestYankLineAndPut(t *testing.T) {
	f := newFixture(t, "one\ntwo")

	f.keys(t, "yyp")
	assert.Equal(t, "one\none\ntwo", f.text())
	assert.Equal(t, 4, f.eng.Caret())

	p, ok := f.eng.Registers().Read('0')
	require.True(t, ok)
	assert.Equal(t, register.Linewise, p.Wise)
	assert.Equal(t, "one\n", p.Text)
}

func TestNamedRegister(t *testing.T) {
	f := newFixture(t, "alpha beta")

	f.keys(t, `"adw`)
	assert.Equal(t, "beta", f.text())

	p, ok := f.eng.Registers().Read('a')
	require.True(t, ok)
	assert.Equal(t, "alpha ", p.Text)

	f.keys(t, `$"ap`)
	assert.Equal(t, "betaalpha ", f.text())
}

func TestMacroRecordAndPlay(t *testing.T) {
	f := newFixture(t, "abcdefghij")

	f.keys(t, "qa3lq")
	assert.Equal(t, 3, f.eng.Caret())

	p, ok := f.eng.Registers().Read('a')
	require.True(t, ok)
	assert.Equal(t, "3l", p.Text)

	f.keys(t, "@a")
	assert.Equal(t, 6, f.eng.Caret())
}

func TestVisualDelete(t *testing.T) {
	f := newFixture(t, "abcdef")

	f.keys(t, "vl")
	assert.True(t, f.eng.Mode().IsVisual())
	anchor, caret, ok := f.eng.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, anchor)
	assert.Equal(t, 1, caret)

	f.keys(t, "d")
	assert.Equal(t, "cdef", f.text())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
}

func TestVisualLineYank(t *testing.T) {
	f := newFixture(t, "one\ntwo\nthree")

	f.keys(t, "Vjy")
	assert.Equal(t, mode.NormalMode, f.eng.Mode())

	p, ok := f.eng.Registers().Read('"')
	require.True(t, ok)
	assert.Equal(t, register.Linewise, p.Wise)
	assert.Equal(t, "one\ntwo\n", p.Text)
}

func TestVisualEscape(t *testing.T) {
	f := newFixture(t, "abc")

	f.keys(t, "vl<Esc>")
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
	_, _, ok := f.eng.Selection()
	assert.False(t, ok)
}

func TestMappingNoRemap(t *testing.T) {
	f := newFixture(t, "abc")

	require.NoError(t, f.eng.Execute("nnoremap x dd"))
	require.NoError(t, f.eng.Execute("nmap Q x"))

	f.keys(t, "Q")
	assert.Equal(t, "", f.text())
	assert.Equal(t, uint64(2), f.eng.Metrics().Snapshot().MappingsTotal)
}

func TestMappingRecursionLimit(t *testing.T) {
	f := newFixture(t, "abc")
	require.NoError(t, f.eng.Execute("nmap a b"))
	require.NoError(t, f.eng.Execute("nmap b a"))

	err := f.eng.HandleNotation("a")
	var rec *keymap.RecursiveMappingError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, "abc", f.text())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
}

func TestExprMapping(t *testing.T) {
	f := newFixture(t, "one\ntwo", WithEvaluator(mapEvaluator{"lines()": "dd"}))

	require.NoError(t, f.eng.Mappings().Map(&keymap.Mapping{
		LHS:    key.MustDecode("Q"),
		Modes:  mode.SetNormal,
		Expr:   true,
		Source: "lines()",
	}, false))

	f.keys(t, "Q")
	assert.Equal(t, "two", f.text())
}

func TestAmbiguousMappingTimeout(t *testing.T) {
	f := newFixture(t, "hello")
	require.NoError(t, f.eng.Execute("nnoremap a x"))
	require.NoError(t, f.eng.Execute("nnoremap ab dd"))

	f.keys(t, "a")
	assert.Equal(t, "hello", f.text())
	assert.Equal(t, "a", f.eng.PendingKeys())
	assert.Equal(t, 1, f.sched.Pending())

	assert.Equal(t, 1, f.sched.Fire())
	assert.Equal(t, "ello", f.text())
	assert.Equal(t, 0, f.sched.Fire())
	assert.Equal(t, uint64(1), f.eng.Metrics().Snapshot().SequenceTimeouts)
}

func TestAmbiguousMappingDecidedByNextKey(t *testing.T) {
	f := newFixture(t, "one\ntwo")
	require.NoError(t, f.eng.Execute("nnoremap a x"))
	require.NoError(t, f.eng.Execute("nnoremap ab dd"))

	f.keys(t, "ab")
	assert.Equal(t, "two", f.text())
	assert.Equal(t, 0, f.sched.Pending())
}

func TestPartialMappingFallsBack(t *testing.T) {
	f := newFixture(t, "one\ntwo")
	require.NoError(t, f.eng.Execute("nnoremap jj dd"))

	f.keys(t, "j")
	assert.Equal(t, 1, f.sched.Fire())
	assert.Equal(t, 4, f.eng.Caret())
	assert.Equal(t, "one\ntwo", f.text())
}

func TestExNormal(t *testing.T) {
	f := newFixture(t, "a\nb")

	require.NoError(t, f.eng.Execute("normal dd"))
	assert.Equal(t, "b", f.text())

	require.NoError(t, f.eng.Execute("norm! d"))
	assert.Equal(t, "b", f.text())
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
	assert.Empty(t, f.eng.PendingKeys())
}

func TestExLet(t *testing.T) {
	f := newFixture(t, "", WithEvaluator(mapEvaluator{`"hi"`: "hi", `"line\n"`: "line\n"}))

	require.NoError(t, f.eng.Execute(`let @a = "hi"`))
	p, ok := f.eng.Registers().Read('a')
	require.True(t, ok)
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, register.Charwise, p.Wise)

	require.NoError(t, f.eng.Execute(`let @a .= "hi"`))
	p, _ = f.eng.Registers().Read('a')
	assert.Equal(t, "hihi", p.Text)

	require.NoError(t, f.eng.Execute(`let @b = "line\n"`))
	p, _ = f.eng.Registers().Read('b')
	assert.Equal(t, register.Linewise, p.Wise)

	assert.ErrorIs(t, f.eng.Execute("let a = 1"), ErrInvalidArgument)
}

func TestExSet(t *testing.T) {
	f := newFixture(t, "")

	require.NoError(t, f.eng.Execute("set sw=4 et"))
	assert.Equal(t, 4, f.eng.Config().ShiftWidth)
	assert.True(t, f.eng.Config().ExpandTab)

	require.NoError(t, f.eng.Execute("set noet"))
	assert.False(t, f.eng.Config().ExpandTab)

	assert.ErrorIs(t, f.eng.Execute("set sw=0"), ErrInvalidArgument)
	assert.Equal(t, 4, f.eng.Config().ShiftWidth)

	assert.ErrorIs(t, f.eng.Execute("set bogus"), ErrUnknownOption)

	require.NoError(t, f.eng.Execute("set sw?"))
	assert.Contains(t, f.note.messages, "shiftwidth=4")
}

func TestExUnknownCommand(t *testing.T) {
	f := newFixture(t, "")
	assert.ErrorIs(t, f.eng.Execute("frobnicate"), ErrNotAnEditorCommand)
}

func TestDefineCommand(t *testing.T) {
	f := newFixture(t, "")
	var calls []string
	require.NoError(t, f.eng.DefineCommand("write", 1, func(bang bool, args string) error {
		calls = append(calls, fmt.Sprintf("write %v %q", bang, args))
		return nil
	}))
	require.NoError(t, f.eng.DefineCommand("wq", 2, func(bool, string) error {
		calls = append(calls, "wq")
		return nil
	}))
	assert.ErrorIs(t, f.eng.DefineCommand("w2", 1, func(bool, string) error { return nil }), ErrInvalidArgument)

	require.NoError(t, f.eng.Execute("w out.txt"))
	require.NoError(t, f.eng.Execute("wq"))
	f.keys(t, ":wri!<CR>")
	assert.Equal(t, []string{`write false "out.txt"`, "wq", `write true ""`}, calls)

	// Built-ins win over host commands.
	require.NoError(t, f.eng.DefineCommand("set", 1, func(bool, string) error {
		t.Fatal("host command shadowed :set")
		return nil
	}))
	require.NoError(t, f.eng.Execute("set sw=2"))
	assert.Equal(t, 2, f.eng.Config().ShiftWidth)
}

func TestExRegisters(t *testing.T) {
	f := newFixture(t, "word")
	f.keys(t, `"kyw`)

	require.NoError(t, f.eng.Execute("reg k"))
	require.Len(t, f.note.messages, 2)
	assert.Equal(t, "Type Name Content", f.note.messages[0])
	assert.True(t, strings.HasSuffix(f.note.messages[1], "word"), f.note.messages[1])
}

func TestCommandLineTyped(t *testing.T) {
	f := newFixture(t, "one\ntwo\nthree")

	f.keys(t, ":")
	assert.Equal(t, mode.CommandLineMode, f.eng.Mode())
	f.keys(t, "3<CR>")
	assert.Equal(t, mode.NormalMode, f.eng.Mode())
	assert.Equal(t, 8, f.eng.Caret())

	f.keys(t, ":abc<Esc>")
	assert.Equal(t, mode.NormalMode, f.eng.Mode())

	p, ok := f.eng.Registers().Read(':')
	require.True(t, ok)
	assert.Equal(t, "3", p.Text)
}

func TestSearchSetsHighlight(t *testing.T) {
	f := newFixture(t, "one two one")

	f.keys(t, "/one<CR>")
	assert.Equal(t, 8, f.eng.Caret())
	assert.True(t, f.eng.Status().Highlight)

	require.NoError(t, f.eng.Execute("noh"))
	assert.False(t, f.eng.Status().Highlight)
}

func TestReplaceMode(t *testing.T) {
	f := newFixture(t, "abcd")

	f.keys(t, "Rxy<BS><Esc>")
	assert.Equal(t, "xbcd", f.text())
}

func TestHooks(t *testing.T) {
	f := newFixture(t, "abc")

	var commands []string
	f.eng.Hooks().Register(FilterHook{
		KeyFilter: func(ev *key.Event, _ Status) bool { return *ev == key.Char('x') },
	})
	f.eng.Hooks().RegisterWithPriority(FuncHook{
		PreCommandFunc: func(name string, _ Status) bool {
			commands = append(commands, name)
			return false
		},
	}, HookPriorityHigh)

	f.keys(t, "xl")
	assert.Equal(t, "abc", f.text())
	assert.Equal(t, 1, f.eng.Caret())
	assert.Len(t, commands, 1)
	assert.Equal(t, uint64(1), f.eng.Metrics().Snapshot().HookConsumptions)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, "one\ntwo")

	f.keys(t, "j2")
	st := f.eng.Status()
	assert.Equal(t, "test", st.ID)
	assert.Equal(t, 1, st.Line)
	assert.Equal(t, "2", st.PendingKeys)

	f.keys(t, "<Esc>")
	assert.Empty(t, f.eng.Status().PendingKeys)
}

func TestClosedEngine(t *testing.T) {
	f := newFixture(t, "abc")
	f.eng.Close()

	assert.True(t, f.eng.IsClosed())
	assert.ErrorIs(t, f.eng.Handle(key.Char('x')), ErrClosed)
	assert.ErrorIs(t, f.eng.Execute("set sw=2"), ErrClosed)
}

func TestMetricsCounters(t *testing.T) {
	f := newFixture(t, "abc")

	f.keys(t, "ll")
	snap := f.eng.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.KeyEventsTotal)
	assert.Equal(t, uint64(2), snap.CommandsTotal)
	assert.True(t, f.eng.Metrics().HealthCheck(time.Hour).Healthy)

	f.eng.Metrics().Reset()
	assert.Zero(t, f.eng.Metrics().KeyEventsTotal())
}

func TestInsertOneCommand(t *testing.T) {
	f := newFixture(t, "abc def")

	f.keys(t, "i<C-o>")
	assert.Equal(t, mode.InsertNormal, f.eng.Mode().Kind)

	f.keys(t, "x")
	assert.Equal(t, "bc def", f.text())
	assert.Equal(t, mode.Insert, f.eng.Mode().Kind)

	f.keys(t, "<Esc>")
	assert.Equal(t, mode.Normal, f.eng.Mode().Kind)
	assert.Equal(t, "bc def", f.text())
}

func TestInsertOneCommandOperator(t *testing.T) {
	f := newFixture(t, "abc def")

	f.keys(t, "i<C-o>dw")
	assert.Equal(t, "def", f.text())
	assert.Equal(t, mode.Insert, f.eng.Mode().Kind)
}

func TestInsertOneCommandMotion(t *testing.T) {
	f := newFixture(t, "abc def")

	f.keys(t, "ia<C-o>0")
	assert.Equal(t, mode.Insert, f.eng.Mode().Kind)
	assert.Equal(t, 0, f.eng.Caret())

	f.keys(t, "b")
	assert.Equal(t, "baabc def", f.text())
}

func TestInsertOneCommandEscape(t *testing.T) {
	f := newFixture(t, "abc")

	f.keys(t, "i<C-o><Esc>")
	assert.Equal(t, mode.Insert, f.eng.Mode().Kind)
	f.keys(t, "z")
	assert.Equal(t, "zabc", f.text())
}

func TestInsertRegisterEmpty(t *testing.T) {
	f := newFixture(t, "abc")

	err := f.eng.HandleNotation("i<C-r>q")
	assert.ErrorIs(t, err, macro.ErrEmptyRegister)
	assert.Len(t, f.note.errors, 1)
	assert.Equal(t, mode.Insert, f.eng.Mode().Kind)
	assert.Equal(t, "abc", f.text())
}

func TestAmbiguousCommandExtendedToPrefix(t *testing.T) {
	f := newFixture(t, "abc")

	var short, long int
	for _, d := range []*keymap.Descriptor{
		{Name: "short", Keys: key.MustDecode("Q"), Modes: mode.SetNormal, Behavior: keymap.BehaviorAction,
			Action: func(*execctx.Context) error { short++; return nil }},
		{Name: "long", Keys: key.MustDecode("Qxy"), Modes: mode.SetNormal, Behavior: keymap.BehaviorAction,
			Action: func(*execctx.Context) error { long++; return nil }},
	} {
		require.NoError(t, f.eng.Registry().Register(d))
	}

	f.keys(t, "Q")
	assert.Equal(t, 1, f.sched.Pending())
	assert.Equal(t, 1, f.sched.Fire())
	assert.Equal(t, 1, short)

	// Q is still a candidate once the keys only prefix Qxy.
	f.keys(t, "Qx")
	assert.Equal(t, "Qx", f.eng.PendingKeys())
	assert.Equal(t, 1, f.sched.Pending())
	assert.Equal(t, 1, f.sched.Fire())
	assert.Equal(t, 2, short)
	assert.Equal(t, "bc", f.text())
	assert.Empty(t, f.eng.PendingKeys())

	f.keys(t, "Qxy")
	assert.Equal(t, 1, long)
	assert.Equal(t, 2, short)
	assert.Equal(t, 0, f.sched.Pending())
}

func TestAmbiguousMappingExtendedToPrefix(t *testing.T) {
	f := newFixture(t, "hello")
	require.NoError(t, f.eng.Execute("nnoremap a x"))
	require.NoError(t, f.eng.Execute("nnoremap alz dd"))

	f.keys(t, "al")
	assert.Equal(t, 1, f.sched.Pending())
	assert.Equal(t, 1, f.sched.Fire())
	// a expands to x, then l moves right.
	assert.Equal(t, "ello", f.text())
	assert.Equal(t, 1, f.eng.Caret())
	assert.Empty(t, f.eng.PendingKeys())
}
