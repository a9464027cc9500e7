package input

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/engine/buffer"
	"github.com/dshills/modalkit/internal/input/key"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
	"github.com/dshills/modalkit/internal/input/vim"
)

// Config configures an engine.
type Config struct {
	// TimeoutLen is how long an ambiguous key sequence waits for more
	// keys. Default: 1000ms
	TimeoutLen time.Duration

	// Timeout enables the ambiguity timeout. When false, an ambiguous
	// sequence waits until the next key decides it.
	Timeout bool

	// MaxMapDepth bounds nested mapping expansion. Default: 1000
	MaxMapDepth int

	// MaxCount is where typed counts saturate.
	MaxCount int

	// MaxMacroDepth bounds nested macro playback. Default: 100
	MaxMacroDepth int

	// ShiftWidth is the indent unit of > and <. Default: 8
	ShiftWidth int

	// ExpandTab indents and types <Tab> as spaces.
	ExpandTab bool

	// Clipboard selects the default register ('clipboard' option).
	Clipboard register.ClipboardOption
}

// DefaultConfig returns a configuration with Vim's defaults.
func DefaultConfig() Config {
	return Config{
		TimeoutLen:    1000 * time.Millisecond,
		Timeout:       true,
		MaxMapDepth:   1000,
		MaxCount:      mode.DefaultMaxCount,
		MaxMacroDepth: macro.DefaultMaxDepth,
		ShiftWidth:    8,
	}
}

// Option configures the collaborators of an engine.
type Option func(*Engine)

// WithScheduler sets the clock used for the ambiguity timeout.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithNotifier sets where errors and messages are reported.
func WithNotifier(n execctx.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithEvaluator sets the expression evaluator used by the = register,
// <C-r>= and <expr> mappings.
func WithEvaluator(ev execctx.Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithSharedRegisters shares the named and numbered registers with
// other engines.
func WithSharedRegisters(s *register.Shared) Option {
	return func(e *Engine) { e.shared = s }
}

// WithClipboard sets the system clipboard bridge of the + and *
// registers.
func WithClipboard(c register.ClipboardBridge) Option {
	return func(e *Engine) { e.clipboard = c }
}

// WithID sets the engine identifier used in logs.
func WithID(id string) Option {
	return func(e *Engine) { e.id = id }
}

// Engine is the modal key dispatch loop of one view. It turns key events
// into edits of a buffer.
//
// All methods are safe for concurrent use. Keys are processed one at a
// time; nested feeds from mappings, macros and repeats run while the
// engine lock is held.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	id       string
	log      Logger
	notifier execctx.Notifier
	eval     execctx.Evaluator
	sched    Scheduler

	shared    *register.Shared
	clipboard register.ClipboardBridge

	buf      buffer.Provider
	regs     *register.Store
	modes    *mode.Machine
	registry *keymap.Registry
	maps     *keymap.Mappings
	composer *vim.Composer
	motion   *vim.State

	recorder *macro.Recorder
	player   *macro.Player
	repeater *macro.Repeater

	hooks   *HookManager
	metrics *Metrics

	// commands are the ex commands added by DefineCommand.
	commands map[string]exCommand

	caret  int
	anchor int
	toEOL  bool

	// highlight is set by a search and cleared by :nohlsearch.
	highlight bool

	// lastVisual is the selection restored by gv.
	lastVisual *visualArea

	// mapBuf holds keys waiting for the mapping phase; cmdBuf holds
	// mapped keys waiting for the command trie.
	mapBuf key.Sequence
	cmdBuf key.Sequence

	suspend *suspension
	cmdline *cmdline
	insert  *insertState
	action  *macro.Change

	depth     int
	undoDepth int

	// seqStart is the mode the current command started in.
	seqStart mode.Mode

	timeoutGen    uint64
	cancelTimeout func()

	closed bool
}

// New creates an engine editing buf.
func New(buf buffer.Provider, cfg Config, opts ...Option) (*Engine, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}
	def := DefaultConfig()
	if cfg.TimeoutLen <= 0 {
		cfg.TimeoutLen = def.TimeoutLen
	}
	if cfg.MaxMapDepth <= 0 {
		cfg.MaxMapDepth = def.MaxMapDepth
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = def.MaxCount
	}
	if cfg.MaxMacroDepth <= 0 {
		cfg.MaxMacroDepth = def.MaxMacroDepth
	}
	if cfg.ShiftWidth <= 0 {
		cfg.ShiftWidth = def.ShiftWidth
	}

	e := &Engine{
		cfg:      cfg,
		buf:      buf,
		modes:    mode.NewMachine(),
		registry: keymap.NewRegistry(),
		maps:     keymap.NewMappings(),
		motion:   vim.NewState(),
		repeater: macro.NewRepeater(),
		hooks:    NewHookManager(),
		metrics:  NewMetrics(),
		seqStart: mode.NormalMode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.id == "" {
		e.id = uuid.NewString()
	}
	if e.log == nil {
		e.log = nopLogger{}
	}
	if e.notifier == nil {
		e.notifier = discardNotifier{}
	}
	if e.sched == nil {
		e.sched = timerScheduler{}
	}
	if e.shared == nil {
		e.shared = register.NewShared()
	}

	e.regs = register.NewStore(e.shared)
	if e.clipboard != nil {
		e.regs.SetClipboard(e.clipboard)
	}
	e.regs.SetClipboardOption(cfg.Clipboard)
	if e.eval != nil {
		e.regs.SetEvaluator(e.eval)
	}

	e.modes.SetMaxCount(cfg.MaxCount)
	e.composer = vim.NewComposer(cfg.MaxCount)
	e.recorder = macro.NewRecorder(e.regs)
	e.player = macro.NewPlayer(e.regs)
	e.player.SetMaxDepth(cfg.MaxMacroDepth)

	if err := keymap.LoadDefaults(e.registry); err != nil {
		return nil, fmt.Errorf("loading default commands: %w", err)
	}
	actions, err := e.builtinActions()
	if err != nil {
		return nil, err
	}
	if err := e.registry.RegisterAll(actions); err != nil {
		return nil, fmt.Errorf("registering actions: %w", err)
	}

	e.log.Debug("engine %s created (%d commands)", e.id, e.registry.Len())
	return e, nil
}

// ID returns the engine identifier.
func (e *Engine) ID() string {
	return e.id
}

// Handle processes one key typed by the user. Errors are reported to the
// notifier once, the engine is returned to a consistent state, and the
// error is returned for the caller's information.
func (e *Engine) Handle(ev key.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handleLocked(ev)
}

func (e *Engine) handleLocked(ev key.Event) error {
	if e.closed {
		return ErrClosed
	}

	if e.hooks.RunPreKey(&ev, e.statusLocked()) {
		e.metrics.RecordHookConsumption()
		return nil
	}

	start := time.Now()
	if e.idle() {
		e.seqStart = e.modes.Current()
	}
	e.recorder.Record(ev)

	err := e.process(ev, true)
	if err != nil {
		e.recover(err)
	}
	e.metrics.RecordKeyEvent(time.Since(start))
	e.hooks.RunPostKey(ev, e.statusLocked())
	return err
}

// HandleKeys processes keys as if typed one after another. Every key is
// handled even when an earlier one fails; the errors are joined.
func (e *Engine) HandleKeys(keys key.Sequence) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, ev := range keys {
		if err := e.handleLocked(ev); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleNotation decodes keys in Vim notation and handles them.
func (e *Engine) HandleNotation(notation string) error {
	keys, err := key.Decode(notation)
	if err != nil {
		return err
	}
	return e.HandleKeys(keys)
}

// idle reports whether no command is partially typed.
func (e *Engine) idle() bool {
	if len(e.mapBuf) > 0 || len(e.cmdBuf) > 0 || e.suspend != nil {
		return false
	}
	p := e.modes.Pending()
	if p.Count > 0 || p.Register != 0 || p.Operator != nil {
		return false
	}
	switch e.modes.Current().Kind {
	case mode.OperatorPending, mode.CommandLine:
		return false
	}
	return true
}

// recover reports err and drops the partially typed command.
func (e *Engine) recover(err error) {
	e.notify(err)
	e.metrics.RecordError()
	e.log.Debug("engine %s: %v", e.id, err)

	e.stopTimeout()
	e.mapBuf, e.cmdBuf = nil, nil
	e.suspend = nil
	e.action = nil
	if e.cmdline != nil {
		e.cmdline = nil
	}

	switch e.modes.Current().Kind {
	case mode.OperatorPending, mode.CommandLine:
		e.modes.Restore(e.seqStart)
	}
	e.modes.ResetPending()
	if e.modes.Current().Kind == mode.InsertNormal {
		e.modes.Pop()
	}
	e.clampCaret()
}

// notify reports err to the user. Missing text objects and failed
// expressions are messages; everything else is an error.
func (e *Engine) notify(err error) {
	var evalErr *execctx.EvalError
	switch {
	case errors.Is(err, vim.ErrNoObjectFound), errors.As(err, &evalErr):
		e.notifier.StatusMessage(err.Error())
	default:
		e.notifier.ReportError(err.Error())
	}
}

// Close stops the engine. Pending timeouts are cancelled and later keys
// are rejected with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopTimeout()
	e.closeUndo()
	e.log.Debug("engine %s closed", e.id)
}

// IsClosed returns whether the engine has been closed.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Buffer returns the edited buffer.
func (e *Engine) Buffer() buffer.Provider {
	return e.buf
}

// Registers returns the register store of the engine.
func (e *Engine) Registers() *register.Store {
	return e.regs
}

// Modes returns the mode machine.
func (e *Engine) Modes() *mode.Machine {
	return e.modes
}

// Registry returns the command registry. Commands registered here are
// dispatched like the built-in ones.
func (e *Engine) Registry() *keymap.Registry {
	return e.registry
}

// Mappings returns the user mapping table.
func (e *Engine) Mappings() *keymap.Mappings {
	return e.maps
}

// Hooks returns the hook manager.
func (e *Engine) Hooks() *HookManager {
	return e.hooks
}

// Metrics returns the engine metrics.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Config returns the current configuration, including :set changes.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Mode returns the current mode.
func (e *Engine) Mode() mode.Mode {
	return e.modes.Current()
}

// Caret returns the caret offset.
func (e *Engine) Caret() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caret
}

// SetCaret moves the caret, clamped to a valid position for the mode.
func (e *Engine) SetCaret(off int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caret = off
	e.clampCaret()
	if snap, err := vim.Take(e.buf); err == nil {
		e.motion.UpdateColumn(snap, e.caret)
	}
}

// Selection returns the anchor and caret of the selection, and whether
// a selection mode is active.
func (e *Engine) Selection() (anchor, caret int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anchor, e.caret, e.modes.Current().HasSelection()
}

// PendingKeys returns the keys of the command being typed, for display.
func (e *Engine) PendingKeys() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingKeysLocked()
}

func (e *Engine) pendingKeysLocked() string {
	p := e.modes.Pending()
	var out key.Sequence
	if p.Register != 0 {
		out = append(out, key.Char('"'), key.Char(p.Register))
	}
	out = append(out, key.FromCount(p.OperatorCount)...)
	out = append(out, p.OperatorKeys...)
	out = append(out, key.FromCount(p.Count)...)
	out = append(out, e.cmdBuf...)
	if e.suspend != nil {
		out = append(out, e.suspend.keys...)
	}
	out = append(out, e.mapBuf...)
	return out.String()
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	md := e.modes.Current()
	st := Status{
		ID:          e.id,
		Mode:        md,
		Display:     md.DisplayName(),
		PendingKeys: e.pendingKeysLocked(),
		Recording:   e.recorder.CurrentRegister(),
		Caret:       e.caret,
		Anchor:      e.anchor,
		Highlight:   e.highlight,

		HasSelection: md.HasSelection(),
	}
	if e.cmdline != nil {
		st.CommandLine = e.cmdline.String()
	}
	if line, err := e.buf.LineOf(e.caret); err == nil {
		st.Line = line
		if start, err := e.buf.LineStart(line); err == nil {
			st.Column = e.caret - start
		}
	}
	return st
}

// OnModeChange registers a callback for mode changes.
func (e *Engine) OnModeChange(cb mode.ChangeCallback) func() {
	return e.modes.OnChange(cb)
}
