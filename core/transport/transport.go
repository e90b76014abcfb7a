package transport

import (
	"encoding/json"

	"livesync/core/errors"
)

// Event names emitted by every transport.
const (
	EventOpen         = "open"
	EventClose        = "close"
	EventServerChange = "server-change"
)

// Topics of the subscription protocol.
const (
	TopicSubscribe   = "s-s"
	TopicUnsubscribe = "s-u"
	TopicChanged     = "s-c"
)

// ErrClosed is returned by SendMessage while no connection is open.
var ErrClosed = errors.New("transport is closed")

// Listener receives the raw JSON arguments of an event.
// Connection events carry no arguments.
type Listener func(args []json.RawMessage)

// Transport is the persistent connection consumed by the subscription
// registry.
type Transport interface {
	// On registers fn for event and returns a func removing it.
	// Events are EventOpen, EventClose, EventServerChange and MessageEvent(topic).
	On(event string, fn Listener) (off func())
	// SendMessage sends one frame made of topic and args.
	SendMessage(topic string, args ...any) error
	// IsOpen reports whether the connection is currently open.
	IsOpen() bool
}

// MessageEvent returns the event name under which frames of topic are emitted.
func MessageEvent(topic string) string {
	return "message:" + topic
}

// EncodeFrame encodes topic and args as the JSON array [topic, args...].
func EncodeFrame(topic string, args ...any) ([]byte, error) {
	frame := make([]any, 0, len(args)+1)
	frame = append(frame, topic)
	frame = append(frame, args...)

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %q frame", topic)
	}
	return data, nil
}

// DecodeFrame splits a JSON array frame into its topic and raw arguments.
func DecodeFrame(data []byte) (string, []json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return "", nil, errors.Wrap(err, "frame is not a JSON array")
	}
	if len(parts) == 0 {
		return "", nil, errors.New("frame is empty")
	}

	var topic string
	if err := json.Unmarshal(parts[0], &topic); err != nil {
		return "", nil, errors.Wrap(err, "frame topic is not a string")
	}
	return topic, parts[1:], nil
}
