package expr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/input/register"
)

// Defaults of an Evaluator.
const (
	DefaultTimeout         = 2 * time.Second
	DefaultCacheExpiration = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// RegisterReader reads registers for the reg() function.
type RegisterReader interface {
	Read(name rune) (register.Payload, bool)
}

// Evaluator is a sandboxed Lua expression evaluator. It implements
// execctx.Evaluator and register.Evaluator.
//
// gopher-lua states are not goroutine-safe; an Evaluator serializes
// evaluations with a mutex.
type Evaluator struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	protos  *gocache.Cache
	regs    RegisterReader
	globals map[string]any
	closed  bool

	expiration time.Duration
	cleanup    time.Duration
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout sets the time limit of one evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithCacheExpiration sets how long compiled expressions stay cached.
func WithCacheExpiration(expiration, cleanup time.Duration) Option {
	return func(e *Evaluator) {
		e.expiration = expiration
		e.cleanup = cleanup
	}
}

// WithRegisters makes registers readable with reg("a").
func WithRegisters(r RegisterReader) Option {
	return func(e *Evaluator) { e.regs = r }
}

// New creates an evaluator with a fresh sandboxed state.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		timeout:    DefaultTimeout,
		expiration: DefaultCacheExpiration,
		cleanup:    DefaultCleanupInterval,
		globals:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.protos = gocache.New(e.expiration, e.cleanup)
	e.L = newSandboxedState()
	e.installFuncs()
	return e
}

// SetRegisters sets the registers read by reg(). Engines create their
// register store after the evaluator, so it is wired in afterwards.
func (e *Evaluator) SetRegisters(r RegisterReader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regs = r
}

func (e *Evaluator) installFuncs() {
	e.L.SetGlobal("reg", e.L.NewFunction(e.luaReg))
	e.L.SetGlobal("repeat_str", e.L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		n := L.CheckInt(2)
		L.Push(lua.LString(strings.Repeat(s, max(n, 0))))
		return 1
	}))
	for name, v := range e.globals {
		if lv, err := toLua(e.L, v); err == nil {
			e.L.SetGlobal(name, lv)
		}
	}
}

// luaReg returns the text of a register, or nil when it is empty.
func (e *Evaluator) luaReg(L *lua.LState) int {
	name := L.CheckString(1)
	r := []rune(name)
	if len(r) != 1 {
		L.ArgError(1, "register name must be one character")
		return 0
	}
	if e.regs == nil || r[0] == register.Expression {
		L.Push(lua.LNil)
		return 1
	}
	p, ok := e.regs.Read(r[0])
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(p.Text))
	return 1
}

// Set assigns a Lua global visible to later expressions.
func (e *Evaluator) Set(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	lv, err := toLua(e.L, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	e.L.SetGlobal(name, lv)
	e.globals[name] = value
	return nil
}

// Evaluate evaluates src and returns its text. Errors are
// *execctx.EvalError.
func (e *Evaluator) Evaluate(src string) (string, error) {
	out, err := e.evaluate(src)
	if err != nil {
		return "", &execctx.EvalError{Source: src, Err: err}
	}
	return out, nil
}

func (e *Evaluator) evaluate(src string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ErrClosed
	}

	proto, err := e.compile(src)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	L := e.L
	L.SetContext(ctx)

	top := L.GetTop()
	L.Push(L.NewFunctionFromProto(proto))
	err = L.PCall(0, 1, nil)
	L.RemoveContext()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// A cancelled state is not reused.
			L.Close()
			e.L = newSandboxedState()
			e.installFuncs()
			return "", ErrTimeout
		}
		L.SetTop(top)
		return "", err
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return toText(ret)
}

// compile returns the cached function proto of src, compiling it as an
// expression first and as a chunk when that fails.
func (e *Evaluator) compile(src string) (*lua.FunctionProto, error) {
	if v, ok := e.protos.Get(src); ok {
		if p, ok := v.(*lua.FunctionProto); ok {
			return p, nil
		}
	}

	p, err := compileChunk("return "+src, src)
	if err != nil {
		var cerr error
		if p, cerr = compileChunk(src, src); cerr != nil {
			return nil, cerr
		}
	}
	e.protos.Set(src, p, gocache.DefaultExpiration)
	return p, nil
}

func compileChunk(code, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(code), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, name)
}

// CachedCount returns the number of cached compiled expressions.
func (e *Evaluator) CachedCount() int {
	return e.protos.ItemCount()
}

// FlushCache drops every cached compiled expression.
func (e *Evaluator) FlushCache() {
	e.protos.Flush()
}

// Close releases the Lua state.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
	e.protos.Flush()
}

// toText converts a Lua value to register text.
func toText(v lua.LValue) (string, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LBool:
		return strconv.FormatBool(bool(v)), nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return formatNumber(float64(v)), nil
	case *lua.LTable:
		var b strings.Builder
		for i := 1; i <= v.Len(); i++ {
			s, err := toText(v.RawGetInt(i))
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			b.WriteByte('\n')
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnconvertible, v.Type())
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) (lua.LValue, error) {
	switch v := v.(type) {
	case nil:
		return lua.LNil, nil
	case string:
		return lua.LString(v), nil
	case bool:
		return lua.LBool(v), nil
	case int:
		return lua.LNumber(v), nil
	case int64:
		return lua.LNumber(v), nil
	case float64:
		return lua.LNumber(v), nil
	case []string:
		t := L.NewTable()
		for _, s := range v {
			t.Append(lua.LString(s))
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnconvertible, v)
	}
}
