package expr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/input/register"
)

func TestEvaluateValues(t *testing.T) {
	e := New()
	defer e.Close()

	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2", "3"},
		{"7 / 2", "3.5"},
		{`"a" .. "b"`, "ab"},
		{`string.upper("x")`, "X"},
		{"nil", ""},
		{"1 < 2", "true"},
		{`{"one", "two"}`, "one\ntwo\n"},
		{"local x = 4; return x * x", "16"},
		{`repeat_str("ab", 3)`, "ababab"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := e.Evaluate(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	e := New(WithTimeout(50 * time.Millisecond))
	defer e.Close()

	_, err := e.Evaluate("1 +")
	var ee *execctx.EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "1 +", ee.Source)

	_, err = e.Evaluate("error('boom')")
	assert.ErrorAs(t, err, &ee)

	_, err = e.Evaluate("function() end")
	assert.ErrorIs(t, err, ErrUnconvertible)

	_, err = e.Evaluate("while true do end")
	assert.ErrorIs(t, err, ErrTimeout)

	// The state is usable after a timeout.
	got, err := e.Evaluate("2 * 21")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestSandbox(t *testing.T) {
	e := New()
	defer e.Close()

	for _, src := range []string{
		`io.open("/etc/passwd")`,
		`os.exit(1)`,
		`require("os")`,
		`dofile("/etc/passwd")`,
		`load("return 1")()`,
	} {
		_, err := e.Evaluate(src)
		assert.Error(t, err, src)
	}
}

func TestRegisterFunction(t *testing.T) {
	store := register.NewStore(nil)
	require.NoError(t, store.Write('a', register.Text("hello"), false))

	e := New(WithRegisters(store))
	defer e.Close()
	store.SetEvaluator(e)

	got, err := e.Evaluate(`reg("a") .. "!"`)
	require.NoError(t, err)
	assert.Equal(t, "hello!", got)

	got, err = e.Evaluate(`reg("b") == nil`)
	require.NoError(t, err)
	assert.Equal(t, "true", got)

	p, err := store.SetExpression(`string.rep("-", 3)`)
	require.NoError(t, err)
	assert.Equal(t, "---", p.Text)
}

func TestSetGlobal(t *testing.T) {
	e := New()
	defer e.Close()

	require.NoError(t, e.Set("width", 80))
	require.NoError(t, e.Set("names", []string{"a", "b"}))

	got, err := e.Evaluate("width / 2")
	require.NoError(t, err)
	assert.Equal(t, "40", got)

	got, err = e.Evaluate("#names")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	assert.ErrorIs(t, e.Set("bad", struct{}{}), ErrUnconvertible)
}

func TestCompileCache(t *testing.T) {
	e := New()
	defer e.Close()

	for range 3 {
		_, err := e.Evaluate("1 + 1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, e.CachedCount())

	e.FlushCache()
	assert.Zero(t, e.CachedCount())
}

func TestClosed(t *testing.T) {
	e := New()
	e.Close()
	e.Close()

	_, err := e.Evaluate("1")
	assert.ErrorIs(t, err, ErrClosed)
}
