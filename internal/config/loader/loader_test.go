package loader

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

// memFS serves files from memory.
type memFS struct{ fstest.MapFS }

func (m memFS) ReadFile(path string) ([]byte, error) {
	return m.MapFS.ReadFile(strings.TrimPrefix(path, "/"))
}

func newMemFS(files map[string]string) memFS {
	fs := fstest.MapFS{}
	for name, data := range files {
		fs[strings.TrimPrefix(name, "/")] = &fstest.MapFile{Data: []byte(data)}
	}
	return memFS{fs}
}

func TestFileLoadTOML(t *testing.T) {
	fs := newMemFS(map[string]string{"/modalkit.toml": `
timeoutlen = 500
clipboard = "unnamedplus"

[registers]
path = "/tmp/registers.toml"

[[map]]
modes = "n"
lhs = "<Space>w"
rhs = ":w<CR>"
noremap = true
`})

	f := NewFile(fs, "/modalkit.toml")
	if f.Format() != FormatTOML {
		t.Fatalf("Format = %v, want toml", f.Format())
	}
	m, err := f.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m["timeoutlen"] != int64(500) {
		t.Errorf("timeoutlen = %v (%T), want 500", m["timeoutlen"], m["timeoutlen"])
	}
	if got, _ := lookup(m, "registers.path"); got != "/tmp/registers.toml" {
		t.Errorf("registers.path = %v", got)
	}
	maps, ok := m["map"].([]any)
	if !ok || len(maps) != 1 {
		t.Fatalf("map = %#v, want one entry", m["map"])
	}
	if entry, ok := maps[0].(map[string]any); !ok || entry["lhs"] != "<Space>w" || entry["noremap"] != true {
		t.Errorf("map[0] = %#v", maps[0])
	}
}

func TestFileLoadYAML(t *testing.T) {
	fs := newMemFS(map[string]string{"/modalkit.yml": `
timeout: false
maxcount: 500
registers:
  1: one
map:
  - modes: i
    lhs: jk
    rhs: <Esc>
`})

	f := NewFile(fs, "/modalkit.yml")
	if f.Format() != FormatYAML {
		t.Fatalf("Format = %v, want yaml", f.Format())
	}
	m, err := f.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m["timeout"] != false || m["maxcount"] != 500 {
		t.Errorf("timeout = %v, maxcount = %v", m["timeout"], m["maxcount"])
	}
	if got, ok := lookup(m, "registers.1"); !ok || got != "one" {
		t.Errorf("registers.1 = %v, want one", got)
	}
}

func TestFileLoadMissing(t *testing.T) {
	m, err := NewFile(newMemFS(nil), "/nonexistent.toml").Load()
	if err != nil || m != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", m, err)
	}
}

func TestFileLoadInvalid(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/bad.toml": "[registers\npath = \"x\"\n",
		"/bad.yaml": "timeout: [\n",
	})

	_, err := NewFile(fs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Path != "/bad.toml" || perr.Line == 0 {
		t.Errorf("ParseError = %+v", perr)
	}
	if !strings.HasPrefix(perr.Error(), "/bad.toml:") {
		t.Errorf("Error() = %q", perr.Error())
	}

	_, err = NewFile(fs, "/bad.yaml").Load()
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestFileDecode(t *testing.T) {
	m, err := NewFile(nil, "inline.toml").Decode(strings.NewReader("shiftwidth = 4\nexpandtab = true\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m["shiftwidth"] != int64(4) || m["expandtab"] != true {
		t.Errorf("Decode = %v", m)
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.yaml":        FormatYAML,
		"a.YML":         FormatYAML,
		"a.toml":        FormatTOML,
		"modalkitrc":    FormatTOML,
		"dir.yaml/file": FormatTOML,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

// lookup returns the value at a dotted path.
func lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, k := range strings.Split(path, ".") {
		sub, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = sub[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}
