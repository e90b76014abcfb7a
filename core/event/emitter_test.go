package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter(t *testing.T) {
	t.Run("Order", func(t *testing.T) {
		var e Emitter[int]
		var got []int
		e.On("x", func(v int) { got = append(got, v*10) })
		e.On("x", func(v int) { got = append(got, v*100) })
		e.On("y", func(v int) { got = append(got, -1) })

		e.Emit("x", 1)

		assert.Equal(t, []int{10, 100}, got)
	})

	t.Run("Off", func(t *testing.T) {
		var e Emitter[string]
		calls := 0
		off := e.On("x", func(string) { calls++ })
		e.Emit("x", "")
		off()
		off()
		e.Emit("x", "")

		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, e.ListenerCount("x"))
	})

	t.Run("OffDuringEmit", func(t *testing.T) {
		var e Emitter[int]
		calls := 0
		var off func()
		off = e.On("x", func(int) {
			calls++
			off()
		})
		e.On("x", func(int) { calls++ })

		e.Emit("x", 0)
		e.Emit("x", 0)

		assert.Equal(t, 3, calls)
	})

	t.Run("Reset", func(t *testing.T) {
		var e Emitter[int]
		e.On("x", func(int) {})
		e.Reset()
		assert.Equal(t, 0, e.ListenerCount("x"))
	})
}
