package loader

import (
	"testing"
)

func newTestEnv(vars ...string) *Env {
	e := NewEnv(EnvPrefix)
	e.environ = func() []string { return vars }
	return e
}

func TestEnvLoad(t *testing.T) {
	m, err := newTestEnv(
		"MODALKIT_TIMEOUTLEN=250",
		"MODALKIT_EXPANDTAB=yes",
		"MODALKIT_LOG_LEVEL=debug",
		"MODALKIT_REGISTERS_SAVE_ON_EXIT=off",
		"MODALKIT_CONFIG=/somewhere/modalkit.toml",
		"HOME=/root",
	).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	checks := map[string]any{
		"timeoutlen":           int64(250),
		"expandtab":            true,
		"logging.level":        "debug",
		"registers.saveonexit": false,
	}
	for path, want := range checks {
		if got, ok := lookup(m, path); !ok || got != want {
			t.Errorf("%s = %v (%T), want %v", path, got, got, want)
		}
	}
	if _, ok := m["config"]; ok {
		t.Error("MODALKIT_CONFIG loaded as a setting")
	}
	if _, ok := m["home"]; ok {
		t.Error("unprefixed variable loaded")
	}
}

func TestEnvAlias(t *testing.T) {
	e := newTestEnv("MODALKIT_SW=3", "MODALKIT_REGISTERS=/tmp/r.toml")
	e.Alias("MODALKIT_SW", "shiftwidth")

	m, _ := e.Load()
	if got, _ := lookup(m, "shiftwidth"); got != int64(3) {
		t.Errorf("shiftwidth = %v, want 3", got)
	}
	if got, _ := lookup(m, "registers.path"); got != "/tmp/r.toml" {
		t.Errorf("registers.path = %v", got)
	}
	if _, ok := m["sw"]; ok {
		t.Error("aliased variable also loaded under its derived path")
	}
}

func TestEnvPath(t *testing.T) {
	e := NewEnv(EnvPrefix)
	tests := map[string]string{
		"MODALKIT_SHIFTWIDTH":             "shiftwidth",
		"MODALKIT_LOGGING_LEVEL":          "logging.level",
		"MODALKIT_LOG_LEVEL":              "logging.level",
		"MODALKIT_REGISTERS_SAVE_ON_EXIT": "registers.saveonexit",
	}
	for name, want := range tests {
		if got := e.path(name); got != want {
			t.Errorf("path(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"On", true},
		{"no", false},
		{"OFF", false},
		{"1", int64(1)},
		{"-10", int64(-10)},
		{"2.5", 2.5},
		{"unnamed,unnamedplus", "unnamed,unnamedplus"},
		{"[oops", "[oops"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := envValue(tt.in); got != tt.want {
			t.Errorf("envValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}

	arr, ok := envValue(`["a","b"]`).([]any)
	if !ok || len(arr) != 2 || arr[1] != "b" {
		t.Errorf("envValue(json array) = %#v", arr)
	}
	obj, ok := envValue(`{"path":"x"}`).(map[string]any)
	if !ok || obj["path"] != "x" {
		t.Errorf("envValue(json object) = %#v", obj)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("MODALKIT_CONFIG", "")
	if got := ConfigPathFromEnv("default.toml"); got != "default.toml" {
		t.Errorf("ConfigPathFromEnv = %q, want default", got)
	}

	t.Setenv("MODALKIT_HOME", "/home/m")
	t.Setenv("MODALKIT_CONFIG", "$MODALKIT_HOME/modalkit.yaml")
	if got := ConfigPathFromEnv("default.toml"); got != "/home/m/modalkit.yaml" {
		t.Errorf("ConfigPathFromEnv = %q", got)
	}
}
