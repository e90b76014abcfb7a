package latch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := New()
	assert.False(t, l.Signaled())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- l.Wait(context.Background()) }()
	l.Signal()
	l.Signal()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
	assert.True(t, l.Signaled())
}

func TestResettable(t *testing.T) {
	r := NewResettable()
	r.Reset()
	assert.False(t, r.Signaled())

	r.Signal()
	released := r.Done()
	r.Reset()

	assert.False(t, r.Signaled())
	select {
	case <-released:
	default:
		t.Fatal("previous waiters must stay released")
	}
	select {
	case <-r.Done():
		t.Fatal("reset latch must block")
	default:
	}

	r.Signal()
	assert.NoError(t, r.Wait(context.Background()))
}
