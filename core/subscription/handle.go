package subscription

import (
	"encoding/json"
	"sync"

	"livesync/core/errors"
	"livesync/core/logger"
	"livesync/core/transport"

	"go.uber.org/zap"
)

// Handle is one logical subscription. It re-sends its subscribe request on
// every transport open until Cancel.
type Handle struct {
	registry    *Registry
	transport   transport.Transport
	id          int
	kind        Kind
	publication string
	params      []any
	handler     Handler
	logger      *zap.Logger

	mu        sync.Mutex
	immediate bool
	active    bool
	cancelled bool
	offOpen   func()
}

// NewHandle registers a subscription to publication and starts it when the
// transport is open. immediate asks the server for the full snapshot on the
// first request; it is forced off while an initial-snapshot cache is
// installed, and the next cached batch is delivered before NewHandle returns.
func (r *Registry) NewHandle(kind Kind, publication string, params []any, handler Handler, immediate bool) (*Handle, error) {
	if !kind.Valid() {
		return nil, errors.Newf("unknown subscription kind %q", string(kind))
	}
	if params == nil {
		params = []any{}
	}

	r.mu.Lock()
	if r.transport == nil {
		r.mu.Unlock()
		return nil, errors.WithHint(ErrNotBound, "call Registry.Bind(transport) before subscribing")
	}

	h := &Handle{
		registry:    r,
		transport:   r.transport,
		id:          r.next,
		kind:        kind,
		publication: publication,
		params:      params,
		handler:     handler,
	}
	r.next++
	h.logger = r.logger.With(logger.Subscription(h.id), logger.Publication(publication))

	initial, hasInitial := r.takeInitial()
	h.immediate = immediate && !hasInitial
	r.handles[h.id] = h
	t := r.transport
	r.mu.Unlock()

	h.offOpen = t.On(transport.EventOpen, func([]json.RawMessage) { h.start() })
	if t.IsOpen() {
		h.start()
	}

	if hasInitial {
		h.setActive(true)
		h.handler(initial)
	}

	h.logger.Debug("Subscription created", zap.String("kind", kind.String()))
	return h, nil
}

// MustHandle is NewHandle for callers that treat an unbound registry as a
// programming error.
func (r *Registry) MustHandle(kind Kind, publication string, params []any, handler Handler, immediate bool) *Handle {
	h, err := r.NewHandle(kind, publication, params, handler, immediate)
	if err != nil {
		panic(err)
	}
	return h
}

// ID returns the registry unique id of the subscription.
func (h *Handle) ID() int { return h.id }

// Kind returns the container kind.
func (h *Handle) Kind() Kind { return h.kind }

// Publication returns the publication name.
func (h *Handle) Publication() string { return h.publication }

// Params returns the publication arguments.
func (h *Handle) Params() []any { return h.params }

// IsActive reports whether a batch arrived since the transport last opened.
func (h *Handle) IsActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Cancelled reports whether Cancel was called.
func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

func (h *Handle) setActive(active bool) {
	h.mu.Lock()
	h.active = active
	h.mu.Unlock()
}

// start sends the subscribe request. Every request after the first asks for
// the immediate snapshot.
func (h *Handle) start() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	immediate := h.immediate
	h.immediate = true
	h.mu.Unlock()

	err := h.transport.SendMessage(transport.TopicSubscribe, string(h.kind), h.publication, h.id, h.params, immediate)
	if err != nil {
		h.logger.Warn("Subscribe request failed, retrying on next open", zap.Error(err))
	}
}

func (h *Handle) deliver(batch json.RawMessage) {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.active = true
	h.mu.Unlock()

	h.handler(batch)
}

// Cancel unregisters the subscription and sends the unsubscribe request.
// Cancelling twice is a no-op.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.active = false
	off := h.offOpen
	h.mu.Unlock()

	h.registry.mu.Lock()
	if h.registry.handles[h.id] == h {
		delete(h.registry.handles, h.id)
	}
	h.registry.mu.Unlock()

	if off != nil {
		off()
	}

	if err := h.transport.SendMessage(transport.TopicUnsubscribe, h.id); err != nil {
		h.logger.Debug("Unsubscribe request failed", zap.Error(err))
	}
	h.logger.Debug("Subscription cancelled")
}

// detach stops listening without sending anything; used when the registry
// is disposed or rebound.
func (h *Handle) detach() {
	h.mu.Lock()
	h.cancelled = true
	h.active = false
	off := h.offOpen
	h.mu.Unlock()

	if off != nil {
		off()
	}
}
