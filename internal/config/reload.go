package config

import (
	"time"

	"github.com/dshills/modalkit/internal/config/watcher"
)

// ReloadFunc receives the reloaded configuration, or the error that kept
// the file from loading.
type ReloadFunc func(cfg *Config, err error)

// Reloader reloads a configuration file when it changes.
type Reloader struct {
	path string
	w    *watcher.Watcher
}

// Watch starts watching the file at path. fn is called from the watcher
// goroutine after each burst of changes. Removing the file reloads the
// defaults.
func Watch(path string, debounce time.Duration, fn ReloadFunc) (*Reloader, error) {
	r := &Reloader{path: path}
	r.w = watcher.New(
		watcher.WithDebounce(debounce),
		watcher.WithErrorHandler(func(err error) { fn(nil, err) }),
	)
	r.w.OnChange(func(watcher.Event) {
		fn(Load(r.path))
	})
	if err := r.w.Watch(path); err != nil {
		return nil, err
	}
	if err := r.w.Start(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the watched file.
func (r *Reloader) Path() string {
	return r.path
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.w.Stop()
}
