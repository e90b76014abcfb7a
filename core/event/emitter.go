// Package event provides a small typed event emitter.
//
// Listeners are registered per event name and removed through the func
// returned by On. Emit invokes a snapshot of the listeners outside the
// emitter's lock, so a listener may register or remove listeners while
// being called.
package event

import "sync"

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Emitter dispatches payloads of type T to listeners by event name.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu        sync.RWMutex
	next      uint64
	listeners map[string][]listener[T]
}

// On registers fn for event and returns a func that removes it.
// Calling the returned func more than once is a no-op.
func (e *Emitter[T]) On(event string, fn func(T)) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string][]listener[T])
	}
	e.next++
	id := e.next
	e.listeners[event] = append(e.listeners[event], listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(event, id) })
	}
}

func (e *Emitter[T]) remove(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[event]
	for i, l := range ls {
		if l.id == id {
			e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// Emit calls every listener registered for event, in registration order.
func (e *Emitter[T]) Emit(event string, payload T) {
	e.mu.RLock()
	ls := e.listeners[event]
	snapshot := make([]listener[T], len(ls))
	copy(snapshot, ls)
	e.mu.RUnlock()

	for _, l := range snapshot {
		l.fn(payload)
	}
}

// ListenerCount returns the number of listeners registered for event.
func (e *Emitter[T]) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// Reset removes every listener.
func (e *Emitter[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}
