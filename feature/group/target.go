package group

import (
	"maps"
	"slices"
	"sync"

	"livesync/core/reconcile"
)

// Binder receives the values of loaded items by name.
type Binder interface {
	Bind(name string, value reconcile.Replica)
	Unbind(name string)
}

// MapTarget is a Binder backed by a map. It is safe for concurrent use.
type MapTarget struct {
	mu     sync.RWMutex
	values map[string]reconcile.Replica
}

// NewMapTarget returns an empty target.
func NewMapTarget() *MapTarget {
	return &MapTarget{values: make(map[string]reconcile.Replica)}
}

func (t *MapTarget) Bind(name string, value reconcile.Replica) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[name] = value
}

func (t *MapTarget) Unbind(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, name)
}

// Get returns the value bound under name.
func (t *MapTarget) Get(name string) (reconcile.Replica, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[name]
	return v, ok
}

// Names returns the bound names in lexical order.
func (t *MapTarget) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.values))
}

// Len returns the number of bound values.
func (t *MapTarget) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}
