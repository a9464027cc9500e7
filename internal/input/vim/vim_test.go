package vim

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/register"
)

type fixture struct {
	buf   *buffer.Buffer
	regs  *register.Store
	comp  *Composer
	state *State
}

func newFixture(text string) *fixture {
	return &fixture{
		buf:   buffer.NewBufferFromString(text),
		regs:  register.NewStore(nil),
		comp:  NewComposer(0),
		state: NewState(),
	}
}

// run composes and applies op at caret and returns the outcome.
func (f *fixture) run(t *testing.T, op *Operator, sel Selector, caret, opCount int) Outcome {
	t.Helper()
	rr, err := f.comp.Compose(f.buf, f.state, op, sel, caret, opCount)
	require.NoError(t, err)
	out, err := f.comp.Apply(Env{Buf: f.buf, Registers: f.regs, Caret: caret, ShiftWidth: 4, ExpandTab: true}, op, rr)
	require.NoError(t, err)
	return out
}

func (f *fixture) reg(t *testing.T, name rune) register.Payload {
	t.Helper()
	p, ok := f.regs.Read(name)
	require.True(t, ok, "register %q is empty", name)
	return p
}

func motion(m *Motion) Selector { return Selector{Motion: m} }

func object(t *testing.T, keys string) Selector {
	t.Helper()
	for _, o := range TextObjects() {
		for _, k := range o.Keys {
			if k == keys {
				return Selector{Object: o}
			}
		}
	}
	t.Fatalf("no text object %q", keys)
	return Selector{}
}

func TestCombineCounts(t *testing.T) {
	assert.Equal(t, 6, CombineCounts(2, 3, 0))
	assert.Equal(t, 1, CombineCounts(0, 0, 0))
	assert.Equal(t, 5, CombineCounts(0, 5, 0))
	assert.Equal(t, 999, CombineCounts(1000, 1000, 999))
	assert.Equal(t, DefaultMaxCount, CombineCounts(DefaultMaxCount, 2, 0))
}

func TestCountsMultiply(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,4}`), 1, 30).Draw(t, "words")
		text := strings.Join(words, " ")
		a := rapid.IntRange(1, 4).Draw(t, "opCount")
		b := rapid.IntRange(1, 4).Draw(t, "motionCount")

		fa := newFixture(text)
		got, err := fa.comp.Compose(fa.buf, fa.state, Delete, Selector{Motion: MotionWordForward, Count: b}, 0, a)
		if err != nil {
			t.Fatalf("Compose(%dd%dw) error = %v", a, b, err)
		}
		fb := newFixture(text)
		want, err := fb.comp.Compose(fb.buf, fb.state, Delete, Selector{Motion: MotionWordForward, Count: a * b}, 0, 0)
		if err != nil {
			t.Fatalf("Compose(d%dw) error = %v", a*b, err)
		}
		if got != want {
			t.Fatalf("%dd%dw = %v, d%dw = %v", a, b, got, a*b, want)
		}
	})
}

func TestDeleteWords(t *testing.T) {
	f := newFixture("a b c d e f g h")
	f.run(t, Delete, Selector{Motion: MotionWordForward, Count: 3}, 0, 2)
	assert.Equal(t, "g h", f.buf.String())
}

func TestDeleteWordSmallDelete(t *testing.T) {
	f := newFixture("foo bar baz")
	out := f.run(t, Delete, motion(MotionWordForward), 0, 0)

	assert.Equal(t, "bar baz", f.buf.String())
	assert.Equal(t, 0, out.Caret)
	assert.Equal(t, "foo ", f.reg(t, '"').Text)
	assert.Equal(t, "foo ", f.reg(t, '-').Text)
	_, rotated := f.regs.Read('1')
	assert.False(t, rotated, "small deletes do not rotate")
}

func TestDeleteWordAtLineEnd(t *testing.T) {
	f := newFixture("foo bar\nbaz")
	f.run(t, Delete, motion(MotionWordForward), 4, 0)
	assert.Equal(t, "foo \nbaz", f.buf.String())
}

func TestChangeWordActsAsChangeEnd(t *testing.T) {
	f := newFixture("foo foo")
	out := f.run(t, Change, motion(MotionWordForward), 0, 0)

	assert.Equal(t, " foo", f.buf.String())
	assert.True(t, out.EntersInsert)
	assert.Equal(t, 0, out.Caret)
}

func TestChangeOnEmptyRangeStillInserts(t *testing.T) {
	f := newFixture("abc")
	out := f.run(t, Change, motion(MotionLineStart), 0, 0)

	assert.Equal(t, "abc", f.buf.String())
	assert.True(t, out.EntersInsert)
	_, written := f.regs.Read('"')
	assert.False(t, written)
}

func TestLinewiseDeletePolicies(t *testing.T) {
	tests := []struct {
		name      string
		caret     int
		count     int
		want      string
		policy    ShiftPolicy
		wantCaret int
	}{
		{"middle line", 4, 0, "one\nthree", AttachNewlineToStart, 4},
		{"last line", 8, 0, "one\ntwo", AttachNewlineToEnd, 4},
		{"whole buffer", 0, 3, "", KeepNoNewline, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("one\ntwo\nthree")
			rr, err := f.comp.Compose(f.buf, f.state, Delete, Selector{Line: true}, tt.caret, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.policy, rr.Policy)

			out, err := f.comp.Apply(Env{Buf: f.buf, Registers: f.regs, Caret: tt.caret}, Delete, rr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.buf.String())
			assert.Equal(t, tt.wantCaret, out.Caret)
			assert.Equal(t, register.Linewise, f.reg(t, '1').Wise)
		})
	}
}

func TestDeleteLineRotatesNumbered(t *testing.T) {
	f := newFixture("one\ntwo\nthree")
	f.run(t, Delete, Selector{Line: true}, 4, 0)
	f.run(t, Delete, Selector{Line: true}, 0, 0)

	assert.Equal(t, "one\n", f.reg(t, '1').Text)
	assert.Equal(t, "two\n", f.reg(t, '2').Text)
	assert.Equal(t, "three", f.buf.String())
}

func TestUnguard(t *testing.T) {
	tests := []struct {
		name    string
		guards  []buffer.Range
		want    string
		policy  ShiftPolicy
		wantErr bool
	}{
		{"trailing newline guarded", []buffer.Range{{Start: 7, End: 8}}, "aaa\nccc", AttachNewlineToEnd, false},
		{"both newlines guarded", []buffer.Range{{Start: 3, End: 4}, {Start: 7, End: 8}}, "aaa\n\nccc", KeepNoNewline, false},
		{"line text guarded", []buffer.Range{{Start: 4, End: 5}}, "aaa\nbbb\nccc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("aaa\nbbb\nccc")
			for _, g := range tt.guards {
				require.NoError(t, f.buf.Guard(g.Start, g.End))
			}

			rr, err := f.comp.Compose(f.buf, f.state, Delete, Selector{Line: true}, 4, 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, buffer.ErrGuarded)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.policy, rr.Policy)

			_, err = f.comp.Apply(Env{Buf: f.buf, Registers: f.regs, Caret: 4}, Delete, rr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.buf.String())
		})
	}
}

func TestMotionRanges(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret int
		sel   Selector
		want  string
	}{
		{"d$", "hello world", 6, motion(MotionLineEnd), "hello "},
		{"dfo", "hello world", 0, Selector{Motion: MotionFindChar, Char: 'o'}, " world"},
		{"dtw", "hello world", 0, Selector{Motion: MotionTillChar, Char: 'w'}, "world"},
		{"dFh", "hello world", 4, Selector{Motion: MotionFindCharBackward, Char: 'h'}, "o world"},
		{"d%", "(a[b])x", 0, motion(MotionMatchPair), "x"},
		{"d} becomes linewise", "a\nb\n\nc", 0, motion(MotionParagraphForward), "\nc"},
		{"db", "foo bar", 4, motion(MotionWordBackward), "bar"},
		{"de", "foo bar", 0, motion(MotionWordEnd), " bar"},
		{"dj", "a\nb\nc", 0, motion(MotionDown), "c"},
		{"dG", "a\nb\nc", 2, motion(MotionLastLine), "a"},
		{"d/", "foo bar baz", 0, Selector{Motion: MotionSearchForward, Str: "ba."}, "bar baz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.text)
			f.run(t, Delete, tt.sel, tt.caret, 0)
			assert.Equal(t, tt.want, f.buf.String())
		})
	}
}

func TestTextObjects(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret int
		keys  string
		count int
		want  string
	}{
		{"iw", "foo bar baz", 5, "iw", 0, "foo  baz"},
		{"aw", "foo bar baz", 5, "aw", 0, "foo baz"},
		{"aw at line end", "foo bar", 5, "aw", 0, "foo"},
		{"i\" before pair", `say "hi there" now`, 0, `i"`, 0, `say "" now`},
		{"a\"", `say "hi there" now`, 6, `a"`, 0, "say now"},
		{"i( multiline", "f(\n  x\n)", 4, "i(", 0, "f(\n)"},
		{"ab", "f(a, b)", 3, "ab", 0, "f"},
		{"i{ nested", "{a{b}c}", 3, "i{", 2, "{}"},
		{"it", "<a><b>x</b></a>", 6, "it", 0, "<a><b></b></a>"},
		{"2it", "<a><b>x</b></a>", 6, "it", 2, "<a></a>"},
		{"ip", "a\nb\n\nc", 0, "ip", 0, "\nc"},
		{"ap", "a\nb\n\nc", 0, "ap", 0, "c"},
		{"ie", "\nfoo\n\n", 1, "ie", 0, "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.text)
			sel := object(t, tt.keys)
			f.run(t, Delete, sel, tt.caret, tt.count)
			assert.Equal(t, tt.want, f.buf.String())
		})
	}
}

func TestMissingObjectIsNoOp(t *testing.T) {
	f := newFixture("abc")
	_, err := f.comp.Compose(f.buf, f.state, Delete, object(t, "i("), 1, 0)
	assert.ErrorIs(t, err, ErrNoObjectFound)
	assert.Equal(t, "abc", f.buf.String())
}

func TestFailedMotion(t *testing.T) {
	f := newFixture("abc")
	_, err := f.comp.Compose(f.buf, f.state, Delete, motion(MotionLeft), 0, 0)
	assert.ErrorIs(t, err, ErrMotionFailed)

	_, err = f.comp.Compose(f.buf, f.state, Delete, motion(MotionLeft), 9, 0)
	assert.True(t, errors.Is(err, buffer.ErrOffsetOutOfRange))
}

func TestYankKeepsNumbered(t *testing.T) {
	f := newFixture("foo bar")
	out := f.run(t, Yank, motion(MotionWordForward), 0, 0)

	assert.Equal(t, "foo bar", f.buf.String())
	assert.Equal(t, 0, out.Caret)
	assert.False(t, out.Changed)
	assert.Equal(t, "foo ", f.reg(t, '0').Text)
	assert.Equal(t, "foo ", f.reg(t, '"').Text)
	_, rotated := f.regs.Read('1')
	assert.False(t, rotated)
}

func TestExplicitRegister(t *testing.T) {
	f := newFixture("foo bar")
	rr, err := f.comp.Compose(f.buf, f.state, Yank, motion(MotionWordForward), 0, 0)
	require.NoError(t, err)
	_, err = f.comp.Apply(Env{Buf: f.buf, Registers: f.regs, Register: 'a'}, Yank, rr)
	require.NoError(t, err)

	assert.Equal(t, "foo ", f.reg(t, 'a').Text)
	_, zero := f.regs.Read('0')
	assert.False(t, zero, "explicit register bypasses 0")
}

func TestBlockOperators(t *testing.T) {
	f := newFixture("abc\nd\nefg")
	snap, err := Take(f.buf)
	require.NoError(t, err)

	rr := f.comp.Visual(snap, 1, 8, register.Blockwise, false)
	assert.Equal(t, "bc\n\nfg", rr.Payload(snap).Text)

	_, err = f.comp.Apply(Env{Buf: f.buf, Registers: f.regs, Caret: 1}, Delete, rr)
	require.NoError(t, err)
	assert.Equal(t, "a\nd\ne", f.buf.String())
	assert.Equal(t, register.Blockwise, f.reg(t, '"').Wise)
}

func TestBlockRowsSkipShort(t *testing.T) {
	snap := NewSnapshot("abc\nd\nefg")
	blk := Block{StartLine: 0, EndLine: 2, StartCol: 1, EndCol: 3}

	assert.Len(t, blk.Rows(snap, false), 3)
	rows := blk.Rows(snap, true)
	require.Len(t, rows, 2)
	assert.Equal(t, buffer.Range{Start: 7, End: 9}, rows[1])
}

func TestCaseAndShiftOperators(t *testing.T) {
	f := newFixture("hello world")
	f.run(t, Uppercase, object(t, "iw"), 0, 0)
	assert.Equal(t, "HELLO world", f.buf.String())

	f.run(t, ToggleCase, motion(MotionLineEnd), 0, 0)
	assert.Equal(t, "hello WORLD", f.buf.String())

	f = newFixture("x\n\ny")
	f.run(t, ShiftRight, Selector{Line: true}, 0, 3)
	assert.Equal(t, "    x\n\n    y", f.buf.String())

	f.run(t, ShiftLeft, Selector{Line: true}, 0, 3)
	assert.Equal(t, "x\n\ny", f.buf.String())
}

func TestVerticalMotionKeepsColumn(t *testing.T) {
	c := NewComposer(0)
	snap := NewSnapshot("abcdef\nab\nabcdef")
	st := NewState()
	st.UpdateColumn(snap, 4)

	off, kind, err := c.Move(snap, st, MotionDown, 4, Selector{})
	require.NoError(t, err)
	assert.Equal(t, Linewise, kind)
	assert.Equal(t, 8, off)

	off, _, err = c.Move(snap, st, MotionDown, off, Selector{})
	require.NoError(t, err)
	assert.Equal(t, 14, off)

	_, _, err = c.Move(snap, st, MotionDown, off, Selector{})
	assert.ErrorIs(t, err, ErrMotionFailed)
}

func TestRepeatFind(t *testing.T) {
	c := NewComposer(0)
	snap := NewSnapshot("a-b-c-d")
	st := NewState()

	off, _, err := c.Move(snap, st, MotionTillChar, 0, Selector{Char: '-'})
	require.NoError(t, err)
	assert.Equal(t, 0, off)

	off, _, err = c.Move(snap, st, MotionRepeatFind, off, Selector{})
	require.NoError(t, err)
	assert.Equal(t, 2, off)

	off, kind, err := c.Move(snap, st, MotionRepeatFindReverse, 4, Selector{})
	require.NoError(t, err)
	assert.Equal(t, Exclusive, kind)
	assert.Equal(t, 2, off)
}

func TestSearch(t *testing.T) {
	snap := NewSnapshot("foo bär bar")

	tests := []struct {
		from    int
		forward bool
		count   int
		want    int
	}{
		{0, true, 1, 4},
		{0, true, 2, 8},
		{8, true, 1, 4},
		{4, false, 1, 8},
	}
	for _, tt := range tests {
		got, err := Search(snap, tt.from, "b.r", tt.forward, tt.count)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Search(from=%d, forward=%v, count=%d)", tt.from, tt.forward, tt.count)
	}

	_, err := Search(snap, 0, "zzz", true, 1)
	assert.ErrorIs(t, err, ErrPatternNotFound)

	got, err := Search(NewSnapshot("a(b"), 0, "(", true, 1)
	require.NoError(t, err, "invalid patterns are searched literally")
	assert.Equal(t, 1, got)
}

func TestSnapshotClampNormal(t *testing.T) {
	snap := NewSnapshot("ab\n\ncd")
	assert.Equal(t, 1, snap.ClampNormal(2))
	assert.Equal(t, 3, snap.ClampNormal(3))
	assert.Equal(t, 5, snap.ClampNormal(6))
	assert.Equal(t, 3, snap.LineCount())
	assert.Equal(t, 4, snap.FirstNonBlank(2))
}
