package remote

import (
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key returns the registry key for a server name.
func Key(name string) string {
	return cases.Lower(language.Und).String(name)
}

// Entry is one registry row.
type Entry struct {
	Key    string
	Target Target
}

// Registry maps lowercase server names to targets, preserving insertion order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	targets map[string]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register stores t under the lowercase form of name and returns the key.
// An existing entry is overwritten in place.
func (r *Registry) Register(name string, t Target) string {
	key := Key(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.targets[key]; !ok {
		r.order = append(r.order, key)
	}
	r.targets[key] = t
	return key
}

// Unregister removes the entry for name.
func (r *Registry) Unregister(name string) {
	key := Key(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(key)
}

// release removes key only while it still maps to t.
func (r *Registry) release(key string, t Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.targets[key]; !ok || cur != t {
		return false
	}
	r.remove(key)
	return true
}

// remove must be called with mu held.
func (r *Registry) remove(key string) {
	if _, ok := r.targets[key]; !ok {
		return
	}
	delete(r.targets, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get looks up key exactly; callers pass the lowercase key.
func (r *Registry) Get(key string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[key]
	return t, ok
}

// List returns all entries in insertion order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, Entry{Key: k, Target: r.targets[k]})
	}
	return out
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
