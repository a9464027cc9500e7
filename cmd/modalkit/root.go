package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/modalkit/internal/app"
	"github.com/dshills/modalkit/internal/config"
	"github.com/dshills/modalkit/internal/config/loader"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "modalkit",
	Short: "A Vim-style modal command engine",
	Long: `modalkit interprets Vim-style key sequences against a text buffer:
counts, operators, motions, text objects, registers, macros, repeat and
user mappings.

The configuration file is TOML or YAML, read from --config, $MODALKIT_CONFIG
or ~/.config/modalkit/config.toml. MODALKIT_* environment variables
override it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/modalkit/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn or error (overrides the config file)")
}

// configPath returns the config file to read: the flag, then
// $MODALKIT_CONFIG, then the user config directory.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	def := ""
	if dir, err := os.UserConfigDir(); err == nil {
		def = filepath.Join(dir, "modalkit", "config.toml")
	}
	return loader.ConfigPathFromEnv(def)
}

// loadConfig loads the configuration and applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		if _, ok := app.ParseLogLevel(logLevel); !ok {
			return nil, fmt.Errorf("unknown log level %q", logLevel)
		}
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}
