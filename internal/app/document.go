package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dshills/modalkit/internal/engine/buffer"
)

// Document is a buffer and the file it was read from.
type Document struct {
	// Path is the file path (empty for scratch buffers).
	Path string

	// Name is the display name (file name or "[No Name]").
	Name string

	Buffer *buffer.Buffer

	// savedRev is the buffer revision last written to Path.
	savedRev atomic.Uint64
}

// OpenDocument reads the file at path. A missing file opens an empty
// document that is created on save.
func OpenDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &OperationError{Op: "open", Target: path, Err: err}
	}
	return NewDocument(path, string(data)), nil
}

// NewDocument creates a document with the given content.
func NewDocument(path, content string) *Document {
	name := filepath.Base(path)
	if path == "" {
		name = "[No Name]"
	}
	d := &Document{
		Path:   path,
		Name:   name,
		Buffer: buffer.NewBufferFromString(content, buffer.WithPath(path)),
	}
	d.savedRev.Store(d.Buffer.Revision())
	return d
}

// IsScratch returns true if this is a scratch buffer (no file path).
func (d *Document) IsScratch() bool {
	return d.Path == ""
}

// IsModified reports whether the buffer changed since it was read or
// last saved.
func (d *Document) IsModified() bool {
	return d.Buffer.Revision() != d.savedRev.Load()
}

// Save writes the buffer to path, or to Path when path is empty. Saving
// to Path clears the modified state. A scratch document takes the path
// it is first saved to.
func (d *Document) Save(path string) error {
	if d.Path == "" && path != "" {
		d.Path = path
		d.Name = filepath.Base(path)
	}
	target := path
	if target == "" {
		target = d.Path
	}
	if target == "" {
		return ErrNoFilePath
	}

	rev := d.Buffer.Revision()
	if err := os.WriteFile(target, []byte(d.Buffer.String()), 0o644); err != nil {
		return &OperationError{Op: "save", Target: target, Err: err}
	}
	if target == d.Path {
		d.savedRev.Store(rev)
	}
	return nil
}
