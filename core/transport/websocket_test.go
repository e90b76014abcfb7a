package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers every subscribe frame with a changed frame for the same
// subscription id, and closes the connection on an unsubscribe frame.
func echoServer(t *testing.T, connIDs chan<- string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connIDs <- r.Header.Get(ConnectionHeader)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			topic, args, err := DecodeFrame(data)
			if err != nil {
				t.Errorf("bad frame: %v", err)
				return
			}
			switch topic {
			case TopicSubscribe:
				reply, _ := EncodeFrame(TopicChanged, args[2], json.RawMessage(`[["a","x"]]`))
				_ = conn.WriteMessage(websocket.TextMessage, reply)
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`["server-change"]`))
			case TopicUnsubscribe:
				return
			}
		}
	}))
}

func TestWebSocket(t *testing.T) {
	connIDs := make(chan string, 4)
	srv := echoServer(t, connIDs)
	defer srv.Close()

	ws := NewWebSocket(Config{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectDelayMs: 10,
	}, nil)

	opened := make(chan struct{}, 4)
	closed := make(chan struct{}, 4)
	changed := make(chan []json.RawMessage, 4)
	serverChange := make(chan struct{}, 4)
	ws.On(EventOpen, func([]json.RawMessage) { opened <- struct{}{} })
	ws.On(EventClose, func([]json.RawMessage) { closed <- struct{}{} })
	ws.On(MessageEvent(TopicChanged), func(args []json.RawMessage) { changed <- args })
	ws.On(EventServerChange, func([]json.RawMessage) { serverChange <- struct{}{} })

	assert.ErrorIs(t, ws.SendMessage(TopicSubscribe), ErrClosed)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Run(ctx) }()

	waitFor(t, opened, "open")
	assert.True(t, ws.IsOpen())
	id := <-connIDs
	assert.NotEmpty(t, id)
	assert.Equal(t, id, ws.ConnectionID())

	require.NoError(t, ws.SendMessage(TopicSubscribe, "array", "users", 7, []any{}, true))

	select {
	case args := <-changed:
		require.Len(t, args, 2)
		assert.Equal(t, json.RawMessage(`7`), args[0])
		assert.JSONEq(t, `[["a","x"]]`, string(args[1]))
	case <-time.After(2 * time.Second):
		t.Fatal("changed frame not received")
	}
	waitFor(t, serverChange, "server-change")

	// The server drops the connection on unsubscribe; the client redials.
	require.NoError(t, ws.SendMessage(TopicUnsubscribe, 7))
	waitFor(t, closed, "close")
	waitFor(t, opened, "reopen")
	assert.NotEqual(t, id, <-connIDs)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, ws.IsOpen())
}

func TestWebSocketDialFailure(t *testing.T) {
	ws := NewWebSocket(Config{URL: "ws://127.0.0.1:1/ws", ReconnectDelayMs: 5, HandshakeTimeoutSeconds: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, ws.Run(ctx))
	assert.False(t, ws.IsOpen())
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
