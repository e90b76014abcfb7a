// Package latch provides one-shot and resettable latches.
//
// A latch starts closed. Signal opens it and releases every waiter; Wait on
// an open latch returns immediately. A Resettable latch can be closed again
// with Reset once it has been signaled, so load/unload style transitions can
// be awaited repeatedly.
package latch

import (
	"context"
	"sync"
)

// Latch is a one-shot barrier.
type Latch struct {
	mu       sync.Mutex
	ch       chan struct{}
	signaled bool
}

// New returns a closed latch.
func New() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Signal opens the latch. Signaling an open latch is a no-op.
func (l *Latch) Signal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.signaled {
		l.signaled = true
		close(l.ch)
	}
}

// Signaled reports whether the latch is open.
func (l *Latch) Signaled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.signaled
}

// Done returns a channel closed when the latch opens.
func (l *Latch) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch
}

// Wait blocks until the latch opens or ctx is done.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resettable is a latch that can be closed again after it opened.
type Resettable struct {
	Latch
}

// NewResettable returns a closed resettable latch.
func NewResettable() *Resettable {
	return &Resettable{Latch: Latch{ch: make(chan struct{})}}
}

// Reset closes an open latch so that later waiters block until the next
// Signal. Waiters released by the previous Signal are unaffected. Resetting
// a closed latch is a no-op.
func (r *Resettable) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.signaled {
		r.signaled = false
		r.ch = make(chan struct{})
	}
}
