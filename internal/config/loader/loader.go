// Package loader reads modalkit configuration sources into generic maps.
//
// Files are TOML or YAML, chosen by extension. Environment variables with
// the MODALKIT_ prefix form a third source. Sources are combined with
// Merge before they are decoded into a typed configuration.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Loader produces one configuration source. A source that does not exist
// loads as nil with no error.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the file access configuration loading needs.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
}

// OSFS reads the real file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) { return os.Open(name) }

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// DefaultFS returns OSFS.
func DefaultFS() FileSystem { return OSFS{} }

// File loads one configuration file in the format its extension names.
type File struct {
	fsys   FileSystem
	path   string
	format Format
}

// NewFile returns the loader of path. A nil fsys reads the OS.
func NewFile(fsys FileSystem, path string) *File {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &File{fsys: fsys, path: path, format: FormatOf(path)}
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Format returns the file format.
func (f *File) Format() Format { return f.format }

// Load implements Loader.
func (f *File) Load() (map[string]any, error) {
	data, err := f.fsys.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", f.path, err)
	}
	return f.format.Parse(f.path, data)
}

// Decode parses r in the file's format. Errors name the file path.
func (f *File) Decode(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return f.format.Parse(f.path, data)
}
