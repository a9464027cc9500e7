package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/modalkit/internal/config/loader"
)

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 8

// Load reads the file at path, applies MODALKIT_ environment overrides
// and validates the result. A missing file yields the defaults with
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load reading files from fsys.
func LoadFS(fsys loader.FileSystem, path string) (*Config, error) {
	var file map[string]any
	if path != "" {
		var err error
		file, err = loader.LoadWithIncludes(fsys, path, maxIncludeDepth)
		if err != nil {
			return nil, err
		}
	}
	env, err := loader.NewEnv(loader.EnvPrefix).Load()
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := Default()
	if err := decode(file, cfg, true); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := decode(env, cfg, false); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes a configuration map over the defaults and validates it.
func Decode(m map[string]any) (*Config, error) {
	cfg := Default()
	if err := decode(m, cfg, true); err != nil {
		return nil, err
	}
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode re-encodes m as TOML and decodes it into cfg, so TOML, YAML and
// environment maps share one set of struct tags. Strict decoding rejects
// unknown keys.
func decode(m map[string]any, cfg *Config, strict bool) error {
	m = prune(m)
	if len(m) == 0 {
		return nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	if strict {
		dec = dec.DisallowUnknownFields()
	}
	if err := dec.Decode(cfg); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, serr.String())
		}
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

// prune drops nil values, which have no TOML form.
func prune(m map[string]any) map[string]any {
	for k, v := range m {
		switch v := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			prune(v)
		case []any:
			for _, item := range v {
				if sub, ok := item.(map[string]any); ok {
					prune(sub)
				}
			}
		}
	}
	return m
}
