package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	data, err := EncodeFrame(TopicSubscribe, "array", "users", 3, []any{"a"}, true)
	require.NoError(t, err)
	assert.JSONEq(t, `["s-s","array","users",3,["a"],true]`, string(data))

	_, err = EncodeFrame("x", func() {})
	assert.Error(t, err)
}

func TestDecodeFrame(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		topic, args, err := DecodeFrame([]byte(`["s-c", 4, [["a", 1]]]`))
		require.NoError(t, err)
		assert.Equal(t, TopicChanged, topic)
		require.Len(t, args, 2)
		assert.Equal(t, json.RawMessage(`4`), args[0])
		assert.JSONEq(t, `[["a",1]]`, string(args[1]))
	})

	t.Run("TopicOnly", func(t *testing.T) {
		topic, args, err := DecodeFrame([]byte(`["server-change"]`))
		require.NoError(t, err)
		assert.Equal(t, EventServerChange, topic)
		assert.Empty(t, args)
	})

	for name, input := range map[string]string{
		"NotArray":    `{"topic":"s-c"}`,
		"Empty":       `[]`,
		"NumberTopic": `[1, 2]`,
		"Garbage":     `[`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeFrame([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestMessageEvent(t *testing.T) {
	assert.Equal(t, "message:s-c", MessageEvent(TopicChanged))
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.Equal(t, time.Second, c.ReconnectDelay())
	assert.Equal(t, 10*time.Second, c.HandshakeTimeout())
	assert.Equal(t, 10*time.Second, c.WriteTimeout())
	assert.Equal(t, int64(4<<20), c.FrameLimit())

	c = Config{ReconnectDelayMs: 250, HandshakeTimeoutSeconds: 2, WriteTimeoutSeconds: 3, MaxFrameBytes: 1024}
	assert.Equal(t, 250*time.Millisecond, c.ReconnectDelay())
	assert.Equal(t, 2*time.Second, c.HandshakeTimeout())
	assert.Equal(t, 3*time.Second, c.WriteTimeout())
	assert.Equal(t, int64(1024), c.FrameLimit())
}
