package loader

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrIncludeDepth is returned when includes nest deeper than allowed.
var ErrIncludeDepth = errors.New("include depth exceeded")

// includeKey lists files merged beneath the file that names them.
const includeKey = "include"

// LoadWithIncludes loads path and the files its "include" key names, a
// path or a list of paths relative to the including file. The including
// file wins over what it includes; later includes win over earlier ones.
// depth bounds nesting.
func LoadWithIncludes(fsys FileSystem, path string, depth int) (map[string]any, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepth, path)
	}
	m, err := NewFile(fsys, path).Load()
	if err != nil || m == nil {
		return nil, err
	}
	raw, ok := m[includeKey]
	if !ok {
		return m, nil
	}
	delete(m, includeKey)

	paths, err := includePaths(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var base map[string]any
	for _, inc := range paths {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		sub, err := LoadWithIncludes(fsys, inc, depth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		base = Merge(base, sub)
	}
	return Merge(base, m), nil
}

func includePaths(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("include entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("include must be a string or a list of strings, got %T", v)
}

// Merge copies over into base and returns base. Tables merge key by key;
// any other value in over replaces the one in base.
func Merge(base, over map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(over))
	}
	for k, v := range over {
		sub, isMap := v.(map[string]any)
		cur, curIsMap := base[k].(map[string]any)
		if isMap && curIsMap {
			base[k] = Merge(cur, sub)
			continue
		}
		base[k] = v
	}
	return base
}
