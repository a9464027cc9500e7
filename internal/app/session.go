package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/modalkit/internal/config"
	"github.com/dshills/modalkit/internal/dispatcher/execctx"
	"github.com/dshills/modalkit/internal/expr"
	"github.com/dshills/modalkit/internal/input"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
)

// reloadDebounce is the quiet period before a changed config file is
// reloaded.
const reloadDebounce = 150 * time.Millisecond

// Options configures a session.
type Options struct {
	// Path is the file to edit. Empty edits a scratch buffer.
	Path string

	// Content, when set, is used instead of reading Path.
	Content *string

	// ConfigPath is the TOML or YAML configuration file. Empty uses the
	// defaults and the environment.
	ConfigPath string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config

	// Watch reloads ConfigPath when it changes.
	Watch bool

	// Logger is the parent logger. Its level is set from the
	// configuration.
	Logger *Logger

	// Notifier receives the engine's errors and messages. Default: a
	// MessageLog.
	Notifier execctx.Notifier

	// Clipboard backs the + and * registers. Default: the system
	// clipboard when available, else an in-memory one.
	Clipboard register.ClipboardBridge

	// Scheduler drives the mapping timeout. Default: real timers.
	Scheduler input.Scheduler

	// Shared holds named and numbered registers shared with other
	// sessions. Default: a new set, loaded from the register file.
	Shared *register.Shared
}

// Session is one document edited by one engine, together with the
// evaluator, registers and configuration that serve it.
type Session struct {
	mu sync.Mutex

	id       string
	log      *Logger
	cfg      *config.Config
	cfgPath  string
	doc      *Document
	eng      *input.Engine
	maps     *keymap.Mappings
	eval     *expr.Evaluator
	shared   *register.Shared
	notifier execctx.Notifier
	reloader *config.Reloader
	logFile  *os.File

	// keymapFiles are the keymap files applied with the configuration.
	keymapFiles []string

	quit   bool
	closed bool
}

// New creates a session.
func New(opts Options) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		cfgPath: opts.ConfigPath,
	}

	root := opts.Logger
	if root == nil {
		root = NewLogger(DefaultLoggerConfig())
	}
	s.log = root.WithField("session", s.id[:8])

	s.cfg = opts.Config
	if s.cfg == nil {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
		s.cfg = cfg
	}
	if level, ok := ParseLogLevel(s.cfg.Logging.Level); ok {
		s.log.SetLevel(level)
	}
	if path := s.cfg.Logging.File; path != "" {
		f, err := OpenLogFile(path)
		if err != nil {
			return nil, &InitError{Component: "logging", Err: err}
		}
		s.logFile = f
		s.log.SetOutput(f)
	}
	started := false
	defer func() {
		if !started {
			s.closeComponents()
			if s.logFile != nil {
				s.log.SetOutput(os.Stderr)
				_ = s.logFile.Close()
			}
		}
	}()

	if opts.Content != nil {
		s.doc = NewDocument(opts.Path, *opts.Content)
	} else if opts.Path != "" {
		doc, err := OpenDocument(opts.Path)
		if err != nil {
			return nil, &InitError{Component: "document", Err: err}
		}
		s.doc = doc
	} else {
		s.doc = NewDocument("", "")
	}

	s.shared = opts.Shared
	if s.shared == nil {
		s.shared = register.NewShared()
		if path := s.cfg.Registers.Path; path != "" {
			if err := register.Load(s.shared, path); err != nil {
				s.log.Warn("loading registers from %s: %v", path, err)
			}
		}
	}

	s.notifier = opts.Notifier
	if s.notifier == nil {
		s.notifier = NewMessageLog(s.log.WithComponent("messages"), 0)
	}

	clip := opts.Clipboard
	if clip == nil {
		if sys := register.NewSystemClipboard(); sys.Available() {
			clip = sys
		} else {
			clip = &register.MemoryClipboard{}
		}
	}

	s.eval = expr.New(expr.WithTimeout(s.cfg.ExprTimeout()))

	engOpts := []input.Option{
		input.WithID(s.id),
		input.WithLogger(s.log.WithComponent("engine")),
		input.WithNotifier(s.notifier),
		input.WithEvaluator(s.eval),
		input.WithSharedRegisters(s.shared),
		input.WithClipboard(clip),
	}
	if opts.Scheduler != nil {
		engOpts = append(engOpts, input.WithScheduler(opts.Scheduler))
	}
	eng, err := input.New(s.doc.Buffer, s.cfg.Engine(), engOpts...)
	if err != nil {
		return nil, &InitError{Component: "engine", Err: err}
	}
	s.eng = eng
	s.maps = eng.Mappings()
	s.eval.SetRegisters(eng.Registers())
	if err := s.eval.Set("filename", s.doc.Name); err != nil {
		s.log.Warn("setting filename: %v", err)
	}

	if err := s.defineCommands(); err != nil {
		return nil, &InitError{Component: "commands", Err: err}
	}
	if err := s.applyMappings(s.cfg); err != nil {
		return nil, &InitError{Component: "mappings", Err: err}
	}

	if opts.Watch && opts.ConfigPath != "" {
		r, err := config.Watch(opts.ConfigPath, reloadDebounce, s.reload)
		if err != nil {
			s.log.Warn("watching %s: %v", opts.ConfigPath, err)
		} else {
			s.reloader = r
		}
	}

	started = true
	s.log.Info("session started for %s", s.doc.Name)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Engine returns the session's engine.
func (s *Session) Engine() *input.Engine { return s.eng }

// Document returns the edited document.
func (s *Session) Document() *Document { return s.doc }

// Evaluator returns the expression evaluator.
func (s *Session) Evaluator() *expr.Evaluator { return s.eval }

// SharedRegisters returns the named and numbered registers.
func (s *Session) SharedRegisters() *register.Shared { return s.shared }

// Notifier returns where the engine reports errors and messages.
func (s *Session) Notifier() execctx.Notifier { return s.notifier }

// Config returns the configuration in effect.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// QuitRequested reports whether :quit succeeded.
func (s *Session) QuitRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

// Feed types keys given in key notation, e.g. "dw" or "ihello<Esc>".
// Every key is handled; the errors of failed commands are joined.
func (s *Session) Feed(notation string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.eng.HandleNotation(notation)
}

// Apply re-applies the options and mappings of cfg. Options that only
// take effect at creation, such as maxcount, are logged when they change.
func (s *Session) Apply(cfg *config.Config) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	if old.MaxCount != cfg.MaxCount || old.MaxMacroDepth != cfg.MaxMacroDepth {
		s.log.Warn("maxcount and maxmacrodepth apply to new sessions only")
	}
	if level, ok := ParseLogLevel(cfg.Logging.Level); ok {
		s.log.SetLevel(level)
	}

	var errs []error
	if err := s.eng.Execute("set " + strings.Join(cfg.SetCommands(), " ")); err != nil {
		errs = append(errs, err)
	}
	if err := s.applyMappings(cfg); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) reload(cfg *config.Config, err error) {
	if err != nil {
		s.log.Warn("reloading %s: %v", s.cfgPath, err)
		return
	}
	if err := s.Apply(cfg); err != nil {
		s.log.Warn("applying %s: %v", s.cfgPath, err)
		return
	}
	s.log.Info("reloaded %s", s.cfgPath)
}

// applyMappings replaces the mappings of the previous configuration and
// its keymap files with those of cfg. Mappings made with :map are kept.
// Keymap files that fail to load are logged and skipped.
func (s *Session) applyMappings(cfg *config.Config) error {
	source := s.mappingSource()
	maps := s.maps

	s.mu.Lock()
	origins := append([]string{source}, s.keymapFiles...)
	s.keymapFiles = nil
	s.mu.Unlock()
	for _, origin := range origins {
		if n := maps.RemoveOrigin(origin); n > 0 {
			s.log.Debug("removed %d mappings of %s", n, origin)
		}
	}

	if err := cfg.Keymap(source).Apply(maps); err != nil {
		return err
	}
	s.log.Debug("applied %d mappings of %s", len(cfg.Mappings), source)

	keymaps, errs := cfg.KeymapLoader().Apply(maps)
	applied := make([]string, 0, len(keymaps))
	for _, km := range keymaps {
		applied = append(applied, km.Source)
		s.log.Debug("loaded keymap %s (%d mappings)", km.Name, len(km.Mappings))
	}
	for _, err := range errs {
		s.log.Warn("keymap: %v", err)
	}

	s.mu.Lock()
	s.keymapFiles = applied
	s.mu.Unlock()
	return nil
}

func (s *Session) mappingSource() string {
	if s.cfgPath != "" {
		return s.cfgPath
	}
	return "config"
}

// defineCommands adds the file commands the engine leaves to its host.
func (s *Session) defineCommands() error {
	cmds := []struct {
		name string
		min  int
		fn   input.CommandFunc
	}{
		{"write", 1, func(_ bool, args string) error { return s.doc.Save(strings.TrimSpace(args)) }},
		{"update", 2, func(bool, string) error {
			if !s.doc.IsModified() {
				return nil
			}
			return s.doc.Save("")
		}},
		{"quit", 1, func(bang bool, _ string) error { return s.requestQuit(bang) }},
		{"wq", 2, func(_ bool, args string) error {
			if err := s.doc.Save(strings.TrimSpace(args)); err != nil {
				return err
			}
			return s.requestQuit(true)
		}},
		{"mkkeymap", 3, s.writeKeymap},
		{"xit", 1, func(bool, string) error {
			if s.doc.IsModified() {
				if err := s.doc.Save(""); err != nil {
					return err
				}
			}
			return s.requestQuit(true)
		}},
	}
	for _, c := range cmds {
		if err := s.eng.DefineCommand(c.name, c.min, c.fn); err != nil {
			return fmt.Errorf("defining :%s: %w", c.name, err)
		}
	}
	return nil
}

// writeKeymap saves every mapping to a keymap file that the keymaps
// setting can load.
func (s *Session) writeKeymap(bang bool, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return ErrNoFilePath
	}
	if _, err := os.Stat(path); err == nil && !bang {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	km := keymap.FromMappings(name, s.maps.List(mode.SetAll, nil))
	if err := km.SaveFile(path); err != nil {
		return &OperationError{Op: "write keymap", Target: path, Err: err}
	}
	s.notifier.StatusMessage(fmt.Sprintf("%q %d mappings written", path, len(km.Mappings)))
	return nil
}

func (s *Session) requestQuit(force bool) error {
	if !force && s.doc.IsModified() {
		return ErrUnsavedChanges
	}
	s.mu.Lock()
	s.quit = true
	s.mu.Unlock()
	return nil
}

// SaveRegisters writes the shared registers to the register file, if one
// is configured.
func (s *Session) SaveRegisters() error {
	path := s.Config().Registers.Path
	if path == "" {
		return nil
	}
	if err := register.Save(s.shared, path); err != nil {
		return &OperationError{Op: "save registers", Target: path, Err: err}
	}
	s.log.Debug("saved registers to %s", path)
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops config watching, saves the registers when configured to,
// and releases the engine and evaluator. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	saveOnExit := s.cfg.Registers.SaveOnExit
	s.mu.Unlock()

	var errs []error
	if s.reloader != nil {
		if err := s.reloader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stopping config watcher: %w", err))
		}
	}
	if saveOnExit {
		if err := s.SaveRegisters(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closeComponents()
	s.log.Info("session closed")
	if s.logFile != nil {
		s.log.SetOutput(os.Stderr)
		if err := s.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) closeComponents() {
	if s.eng != nil {
		s.eng.Close()
	}
	if s.eval != nil {
		s.eval.Close()
	}
}

// OpenLogFile opens path for appending log lines.
func OpenLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
