package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	base := New("registry is not bound")
	err := Wrap(base, "failed to subscribe")

	assert.True(t, Is(err, base))
	assert.Equal(t, "failed to subscribe: registry is not bound", err.Error())
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("bad definition"), "use ByPublication or ByValue")

	assert.Contains(t, FlattenHints(err), "use ByPublication or ByValue")
	assert.Equal(t, "bad definition", err.Error())
}
