// Package transport defines the persistent connection the subscription
// layer runs on, and provides a websocket implementation of it.
//
// # Contract
//
// A Transport emits four kinds of events:
//   - "open" whenever a connection is established (including reconnects)
//   - "close" whenever it is lost
//   - "server-change" when the server signals it restarted or changed
//   - "message:<topic>" for every inbound frame
//
// and sends frames with SendMessage. The subscription protocol uses the
// topics "s-s" (subscribe), "s-u" (unsubscribe) and "s-c" (changed).
//
// # WebSocket
//
// WebSocket dials with gorilla/websocket and frames every message as a JSON
// array [topic, args...]. Run owns the connection lifecycle: it redials after
// a close, paced by a token bucket limiter, until its context ends. Each
// connection gets a uuid sent in the X-Connection-Id header and attached to
// its log entries.
//
// # Testing
//
// The mocks package provides a testify mock and a Loopback transport that
// records sent frames and lets tests drive open/close/message events.
package transport
