package engine

import (
	"sync"
)

// Registry tracks the folder paths with a sync in flight. It is the
// only state shared between concurrent syncs, and the lock is never
// held across I/O.
type Registry struct {
	mu     sync.Mutex
	active map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]bool),
	}
}

// TryAcquire claims path for a sync. The check and the insert happen
// under one lock acquisition so two concurrent callers can never both
// claim the same path.
func (r *Registry) TryAcquire(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active[path] {
		return false
	}
	r.active[path] = true
	return true
}

// Release frees path for the next sync.
func (r *Registry) Release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, path)
}

// Active reports whether a sync is in flight for path.
func (r *Registry) Active(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active[path]
}
