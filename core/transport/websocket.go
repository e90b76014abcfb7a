package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"livesync/core/errors"
	"livesync/core/event"
	"livesync/core/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ConnectionHeader carries the client generated id of each connection.
const ConnectionHeader = "X-Connection-Id"

// WebSocket is a Transport over a gorilla/websocket client connection.
// Every frame is a JSON text message [topic, args...]; the frame
// ["server-change"] is surfaced as EventServerChange.
//
// Run keeps one connection open at a time and redials after it closes,
// paced by the configured reconnect delay.
type WebSocket struct {
	cfg     Config
	dialer  *websocket.Dialer
	logger  *zap.Logger
	limiter *rate.Limiter
	events  event.Emitter[[]json.RawMessage]

	writeMu sync.Mutex
	mu      sync.RWMutex
	conn    *websocket.Conn
	connID  string
	open    atomic.Bool
}

// NewWebSocket creates a websocket transport. Nothing is dialed until Run.
func NewWebSocket(cfg Config, l *zap.Logger) *WebSocket {
	return &WebSocket{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout(),
		},
		logger:  logger.OrNop(l),
		limiter: rate.NewLimiter(rate.Every(cfg.ReconnectDelay()), 1),
	}
}

// On implements Transport.
func (w *WebSocket) On(event string, fn Listener) func() {
	return w.events.On(event, fn)
}

// IsOpen implements Transport.
func (w *WebSocket) IsOpen() bool {
	return w.open.Load()
}

// ConnectionID returns the id of the current connection, or "" when closed.
func (w *WebSocket) ConnectionID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connID
}

// SendMessage implements Transport.
func (w *WebSocket) SendMessage(topic string, args ...any) error {
	data, err := EncodeFrame(topic, args...)
	if err != nil {
		return err
	}

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()
	if conn == nil || !w.open.Load() {
		return ErrClosed
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout())); err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrapf(err, "failed to send %q frame", topic)
	}
	return nil
}

// Run dials the server and serves connections until ctx is done.
// Dial failures are logged and retried; Run only returns once ctx ends.
func (w *WebSocket) Run(ctx context.Context) error {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil
		}

		conn, id, err := w.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("Websocket dial failed", zap.String("url", w.cfg.URL), zap.Error(err))
			continue
		}

		w.serve(ctx, conn, id)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (w *WebSocket) dial(ctx context.Context) (*websocket.Conn, string, error) {
	id := uuid.NewString()
	header := http.Header{}
	header.Set(ConnectionHeader, id)

	conn, resp, err := w.dialer.DialContext(ctx, w.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to dial %s", w.cfg.URL)
	}
	return conn, id, nil
}

// serve owns conn until it fails or ctx ends.
func (w *WebSocket) serve(ctx context.Context, conn *websocket.Conn, id string) {
	l := w.logger.With(logger.Connection(id))
	conn.SetReadLimit(w.cfg.FrameLimit())

	w.mu.Lock()
	w.conn = conn
	w.connID = id
	w.mu.Unlock()
	w.open.Store(true)

	l.Info("Websocket connected", zap.String("url", w.cfg.URL))
	w.events.Emit(EventOpen, nil)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			w.writeMu.Unlock()
			conn.Close()
		case <-stop:
		}
	}()

	w.readLoop(conn, l)
	close(stop)

	w.open.Store(false)
	w.mu.Lock()
	w.conn = nil
	w.connID = ""
	w.mu.Unlock()
	conn.Close()

	l.Info("Websocket disconnected")
	w.events.Emit(EventClose, nil)
}

func (w *WebSocket) readLoop(conn *websocket.Conn, l *zap.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				l.Warn("Websocket read error", zap.Error(err))
			}
			return
		}

		topic, args, err := DecodeFrame(data)
		if err != nil {
			l.Warn("Dropping malformed frame", zap.Error(err), zap.Int("size_bytes", len(data)))
			continue
		}

		if topic == EventServerChange {
			w.events.Emit(EventServerChange, args)
			continue
		}
		w.events.Emit(MessageEvent(topic), args)
	}
}
