package keymap

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader reads keymap files from search directories. Files ending in
// .yaml or .yml are YAML; .toml files are TOML.
type Loader struct {
	dirs []string
}

// NewLoader returns a loader searching dirs.
func NewLoader(dirs ...string) *Loader {
	return &Loader{dirs: dirs}
}

// AddSearchPath appends a directory to search.
func (l *Loader) AddSearchPath(dir string) {
	l.dirs = append(l.dirs, dir)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Files lists the keymap files of the search directories, sorted within
// each directory.
func (l *Loader) Files() ([]string, error) {
	var files []string
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return files, err
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".toml" || isYAML(e.Name())) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	return files, nil
}

// LoadFile reads one keymap file. A keymap without a name is named after
// the file, and its Source is the path.
func (l *Loader) LoadFile(path string) (*Keymap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	decode := l.LoadReader
	if isYAML(path) {
		decode = l.LoadYAML
	}
	km, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if km.Name == "" {
		km.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if km.Source == "" {
		km.Source = path
	}
	return km, nil
}

// LoadReader decodes and validates a TOML keymap. Unknown keys are errors.
func (l *Loader) LoadReader(r io.Reader) (*Keymap, error) {
	var km Keymap
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&km); err != nil {
		return nil, fmt.Errorf("decoding keymap: %w", err)
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return &km, nil
}

// LoadYAML is LoadReader for YAML.
func (l *Loader) LoadYAML(r io.Reader) (*Keymap, error) {
	var km Keymap
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&km); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding keymap: %w", err)
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return &km, nil
}

// LoadAll reads every keymap file. Files that fail are reported in errs
// and skipped.
func (l *Loader) LoadAll() (keymaps []*Keymap, errs []error) {
	files, err := l.Files()
	if err != nil {
		errs = append(errs, err)
	}
	for _, path := range files {
		km, err := l.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keymaps = append(keymaps, km)
	}
	return keymaps, errs
}

// Apply loads every keymap file into t and returns the keymaps it read,
// including those whose mappings failed.
func (l *Loader) Apply(t *Mappings) ([]*Keymap, []error) {
	keymaps, errs := l.LoadAll()
	for _, km := range keymaps {
		if err := km.Apply(t); err != nil {
			errs = append(errs, err)
		}
	}
	return keymaps, errs
}

// Encode returns the keymap as YAML when yamlSyntax is set and as TOML
// otherwise.
func (k *Keymap) Encode(yamlSyntax bool) ([]byte, error) {
	if yamlSyntax {
		return yaml.Marshal(k)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(k); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile writes the keymap to path in the syntax its extension names.
func (k *Keymap) SaveFile(path string) error {
	data, err := k.Encode(isYAML(path))
	if err != nil {
		return fmt.Errorf("encoding keymap: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing keymap file: %w", err)
	}
	return nil
}
