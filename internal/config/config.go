package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/modalkit/internal/input"
	"github.com/dshills/modalkit/internal/input/keymap"
	"github.com/dshills/modalkit/internal/input/macro"
	"github.com/dshills/modalkit/internal/input/mode"
	"github.com/dshills/modalkit/internal/input/register"
)

// Config is the configuration of a modalkit session. Option names follow
// Vim's.
type Config struct {
	// Timeout enables the ambiguous-sequence timeout.
	Timeout bool `toml:"timeout" yaml:"timeout"`

	// TimeoutLen is the timeout in milliseconds.
	TimeoutLen int `toml:"timeoutlen" yaml:"timeoutlen"`

	// MaxMapDepth bounds nested mapping expansion.
	MaxMapDepth int `toml:"maxmapdepth" yaml:"maxmapdepth"`

	// MaxCount is where typed counts saturate. Takes effect for new
	// sessions only.
	MaxCount int `toml:"maxcount" yaml:"maxcount"`

	// MaxMacroDepth bounds nested macro playback. Takes effect for new
	// sessions only.
	MaxMacroDepth int `toml:"maxmacrodepth" yaml:"maxmacrodepth"`

	ShiftWidth int  `toml:"shiftwidth" yaml:"shiftwidth"`
	ExpandTab  bool `toml:"expandtab" yaml:"expandtab"`

	// Clipboard is the 'clipboard' option: "", "unnamed", "unnamedplus"
	// or both separated by a comma.
	Clipboard string `toml:"clipboard" yaml:"clipboard"`

	Registers RegistersConfig `toml:"registers" yaml:"registers"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Expr      ExprConfig      `toml:"expr" yaml:"expr"`

	// Mappings are applied in order, like :map commands in a vimrc.
	Mappings []keymap.Entry `toml:"map" yaml:"map"`

	// KeymapDirs are directories of keymap files (*.toml), applied
	// after Mappings.
	KeymapDirs []string `toml:"keymaps" yaml:"keymaps"`
}

// RegistersConfig configures register persistence.
type RegistersConfig struct {
	// Path is the YAML file named and numbered registers are loaded from
	// and saved to. Empty disables persistence.
	Path string `toml:"path" yaml:"path"`

	// SaveOnExit saves the registers when a session closes.
	SaveOnExit bool `toml:"saveonexit" yaml:"saveonexit"`
}

// LoggingConfig configures the session logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn and error.
	Level string `toml:"level" yaml:"level"`

	// File is where logs are appended. Empty logs to stderr.
	File string `toml:"file" yaml:"file"`
}

// ExprConfig configures the expression evaluator.
type ExprConfig struct {
	// Timeout is the time limit of one evaluation in milliseconds.
	Timeout int `toml:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Timeout:       true,
		TimeoutLen:    1000,
		MaxMapDepth:   1000,
		MaxCount:      mode.DefaultMaxCount,
		MaxMacroDepth: macro.DefaultMaxDepth,
		ShiftWidth:    8,
		Registers:     RegistersConfig{SaveOnExit: true},
		Logging:       LoggingConfig{Level: "warn"},
		Expr:          ExprConfig{Timeout: 2000},
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every setting and the mapping table.
func (c *Config) Validate() error {
	positive := []struct {
		path  string
		value int
	}{
		{"timeoutlen", c.TimeoutLen},
		{"maxmapdepth", c.MaxMapDepth},
		{"maxcount", c.MaxCount},
		{"maxmacrodepth", c.MaxMacroDepth},
		{"shiftwidth", c.ShiftWidth},
		{"expr.timeout", c.Expr.Timeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &ValidationError{Path: p.path, Message: "must be positive", Value: p.value}
		}
	}
	if _, err := register.ParseClipboardOption(c.Clipboard); err != nil {
		return &ValidationError{Path: "clipboard", Message: err.Error(), Value: c.Clipboard}
	}
	if !logLevels[strings.ToLower(c.Logging.Level)] {
		return &ValidationError{Path: "logging.level", Message: "must be debug, info, warn or error", Value: c.Logging.Level}
	}
	if err := c.Keymap("").Validate(); err != nil {
		return fmt.Errorf("%w: map: %w", ErrValidationFailed, err)
	}
	return nil
}

// Engine returns the engine configuration. c must be valid.
func (c *Config) Engine() input.Config {
	clip, _ := register.ParseClipboardOption(c.Clipboard)
	return input.Config{
		TimeoutLen:    time.Duration(c.TimeoutLen) * time.Millisecond,
		Timeout:       c.Timeout,
		MaxMapDepth:   c.MaxMapDepth,
		MaxCount:      c.MaxCount,
		MaxMacroDepth: c.MaxMacroDepth,
		ShiftWidth:    c.ShiftWidth,
		ExpandTab:     c.ExpandTab,
		Clipboard:     clip,
	}
}

// ExprTimeout returns the expression time limit.
func (c *Config) ExprTimeout() time.Duration {
	return time.Duration(c.Expr.Timeout) * time.Millisecond
}

// Keymap returns the mapping table as a keymap.
func (c *Config) Keymap(source string) *keymap.Keymap {
	km := keymap.NewKeymap("config").WithSource(source)
	km.Mappings = append(km.Mappings, c.Mappings...)
	return km
}

// KeymapLoader returns a loader searching KeymapDirs.
func (c *Config) KeymapLoader() *keymap.Loader {
	l := keymap.NewLoader()
	for _, dir := range c.KeymapDirs {
		l.AddSearchPath(dir)
	}
	return l
}

// SetCommands returns the :set arguments that apply the options that
// can change while a session runs.
func (c *Config) SetCommands() []string {
	boolOpt := func(name string, on bool) string {
		if on {
			return name
		}
		return "no" + name
	}
	return []string{
		boolOpt("timeout", c.Timeout),
		fmt.Sprintf("timeoutlen=%d", c.TimeoutLen),
		fmt.Sprintf("maxmapdepth=%d", c.MaxMapDepth),
		fmt.Sprintf("shiftwidth=%d", c.ShiftWidth),
		boolOpt("expandtab", c.ExpandTab),
		"clipboard=" + c.Clipboard,
	}
}

// expandPaths expands ~ and environment variables in file settings.
func (c *Config) expandPaths() {
	c.Registers.Path = expandPath(c.Registers.Path)
	c.Logging.File = expandPath(c.Logging.File)
	for i, dir := range c.KeymapDirs {
		c.KeymapDirs[i] = expandPath(dir)
	}
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if rest, ok := strings.CutPrefix(p, "~"); ok && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, rest)
		}
	}
	return p
}
