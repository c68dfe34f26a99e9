package fileutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one decoded version of a watched file.
type Snapshot[T any] struct {
	Value   *T
	Path    string
	ModTime time.Time
}

// DecodeFunc parses the file at path.
type DecodeFunc[T any] func(path string) (*T, error)

// Reloader keeps the latest successfully decoded version of a file and
// replaces it only when the file's modification time changes.
type Reloader[T any] struct {
	path   string
	decode DecodeFunc[T]

	mu      sync.Mutex
	current atomic.Pointer[Snapshot[T]]
}

// NewReloader performs the initial load. A failure here is returned as-is so
// callers can classify it.
func NewReloader[T any](path string, decode DecodeFunc[T]) (*Reloader[T], error) {
	if decode == nil {
		return nil, fmt.Errorf("reloader: decode func is nil")
	}
	r := &Reloader[T]{path: path, decode: decode}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	value, err := decode(path)
	if err != nil {
		return nil, err
	}
	r.current.Store(&Snapshot[T]{Value: value, Path: path, ModTime: info.ModTime()})
	return r, nil
}

// Path returns the watched file path.
func (r *Reloader[T]) Path() string { return r.path }

// Current returns the active snapshot. Never nil after construction.
func (r *Reloader[T]) Current() *Snapshot[T] {
	return r.current.Load()
}

// Reload re-reads the file when its modification time differs from the active
// snapshot. It reports whether a new snapshot was installed. On any error the
// previous snapshot stays active.
func (r *Reloader[T]) Reload() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return false, err
	}
	prev := r.current.Load()
	if prev != nil && info.ModTime().Equal(prev.ModTime) {
		return false, nil
	}
	value, err := r.decode(r.path)
	if err != nil {
		return false, err
	}
	r.current.Store(&Snapshot[T]{Value: value, Path: r.path, ModTime: info.ModTime()})
	return true, nil
}
