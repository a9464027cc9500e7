package loader

import (
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvPrefix is the prefix of modalkit environment variables.
const EnvPrefix = "MODALKIT_"

// Env loads settings from prefixed environment variables.
//
// MODALKIT_SHIFTWIDTH sets shiftwidth. With more words, the first names a
// section and the rest, joined, the setting: MODALKIT_REGISTERS_SAVE_ON_EXIT
// sets registers.saveonexit. Aliases override the derived path.
type Env struct {
	prefix  string
	aliases map[string]string
	skip    map[string]bool
	environ func() []string
}

// NewEnv returns the loader of variables starting with prefix. The
// variable naming the config file is not a setting and is skipped.
func NewEnv(prefix string) *Env {
	return &Env{
		prefix: prefix,
		aliases: map[string]string{
			prefix + "LOG_LEVEL": "logging.level",
			prefix + "REGISTERS": "registers.path",
		},
		skip:    map[string]bool{prefix + "CONFIG": true},
		environ: os.Environ,
	}
}

// Alias maps a variable to a dotted setting path.
func (e *Env) Alias(name, path string) {
	e.aliases[name] = path
}

// Load implements Loader.
func (e *Env) Load() (map[string]any, error) {
	m := make(map[string]any)
	for _, kv := range e.environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) || e.skip[name] {
			continue
		}
		setPath(m, e.path(name), envValue(val))
	}
	return m, nil
}

func (e *Env) path(name string) string {
	if p, ok := e.aliases[name]; ok {
		return p
	}
	words := strings.ToLower(strings.TrimPrefix(name, e.prefix))
	section, rest, found := strings.Cut(words, "_")
	if !found {
		return words
	}
	return section + "." + strings.ReplaceAll(rest, "_", "")
}

// envValue types a variable value: booleans as Vim spells them, integers,
// decimals, JSON arrays and objects, and strings for everything else.
func envValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}

func setPath(m map[string]any, path string, v any) {
	keys := strings.Split(path, ".")
	for _, k := range keys[:len(keys)-1] {
		sub, ok := m[k].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[k] = sub
		}
		m = sub
	}
	m[keys[len(keys)-1]] = v
}

// ConfigPathFromEnv returns the config file named by MODALKIT_CONFIG with
// variables expanded, or def.
func ConfigPathFromEnv(def string) string {
	if val := os.Getenv(EnvPrefix + "CONFIG"); val != "" {
		return os.ExpandEnv(val)
	}
	return def
}
