package mocks

import (
	"encoding/json"
	"sync"

	"livesync/core/event"
	"livesync/core/transport"
)

// Frame is one message sent through a Loopback.
type Frame struct {
	Topic string
	Args  []any
}

// Loopback is an in-memory transport.Transport for tests. It records sent
// frames and lets the test drive connection and message events.
type Loopback struct {
	events event.Emitter[[]json.RawMessage]

	mu      sync.Mutex
	open    bool
	sent    []Frame
	sendErr error
}

// NewLoopback returns a loopback transport, open or closed.
func NewLoopback(open bool) *Loopback {
	return &Loopback{open: open}
}

func (l *Loopback) On(event string, fn transport.Listener) func() {
	return l.events.On(event, fn)
}

func (l *Loopback) SendMessage(topic string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, Frame{Topic: topic, Args: args})
	return nil
}

func (l *Loopback) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// FailSends makes every following SendMessage return err (nil restores).
func (l *Loopback) FailSends(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sendErr = err
}

// Open marks the transport open and emits "open".
func (l *Loopback) Open() {
	l.mu.Lock()
	l.open = true
	l.mu.Unlock()
	l.events.Emit(transport.EventOpen, nil)
}

// Close marks the transport closed and emits "close".
func (l *Loopback) Close() {
	l.mu.Lock()
	l.open = false
	l.mu.Unlock()
	l.events.Emit(transport.EventClose, nil)
}

// ServerChange emits "server-change".
func (l *Loopback) ServerChange() {
	l.events.Emit(transport.EventServerChange, nil)
}

// Deliver emits an inbound frame of topic. Each arg is JSON encoded unless
// it already is a json.RawMessage.
func (l *Loopback) Deliver(topic string, args ...any) error {
	raw := make([]json.RawMessage, len(args))
	for i, arg := range args {
		if r, ok := arg.(json.RawMessage); ok {
			raw[i] = r
			continue
		}
		data, err := json.Marshal(arg)
		if err != nil {
			return err
		}
		raw[i] = data
	}
	l.events.Emit(transport.MessageEvent(topic), raw)
	return nil
}

// Changed delivers a diff batch, given as JSON text, to subscription id.
func (l *Loopback) Changed(id int, batch string) error {
	return l.Deliver(transport.TopicChanged, id, json.RawMessage(batch))
}

// Sent returns a copy of the frames sent so far.
func (l *Loopback) Sent() []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Frame, len(l.sent))
	copy(out, l.sent)
	return out
}

// SentTopic returns the frames sent with topic.
func (l *Loopback) SentTopic(topic string) []Frame {
	var out []Frame
	for _, f := range l.Sent() {
		if f.Topic == topic {
			out = append(out, f)
		}
	}
	return out
}

// ResetSent forgets the recorded frames.
func (l *Loopback) ResetSent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = nil
}

// ListenerCount returns the number of listeners registered for event.
func (l *Loopback) ListenerCount(event string) int {
	return l.events.ListenerCount(event)
}
