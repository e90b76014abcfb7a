package subscription

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"livesync/core/errors"
	"livesync/core/logger"
	"livesync/core/transport"

	"go.uber.org/zap"
)

// ErrNotBound is returned when a handle is created on a registry that has no
// transport.
var ErrNotBound = errors.New("subscription registry is not bound to a transport")

// Handler receives the raw diff batches of one subscription.
// A nil batch means the subscription's data became unavailable.
type Handler func(batch json.RawMessage)

// Registry tracks the live subscriptions of one transport.
type Registry struct {
	mu        sync.Mutex
	transport transport.Transport
	offs      []func()
	next      int
	handles   map[int]*Handle
	initials  []json.RawMessage
	preloaded bool
	logger    *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger.OrNop(l)
	}
}

// New creates an unbound registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		handles: make(map[int]*Handle),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind attaches the registry to t, replacing any previous transport.
// The id sequence and the handle set start over.
func (r *Registry) Bind(t transport.Transport) {
	r.Dispose()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.transport = t
	r.next = 0
	r.handles = make(map[int]*Handle)
	r.offs = []func(){
		t.On(transport.MessageEvent(transport.TopicChanged), r.handleChanged),
		t.On(transport.EventClose, r.handleClose),
		t.On(transport.EventServerChange, r.handleServerChange),
	}
}

// Dispose detaches the registry from its transport. Handles stay allocated
// but no longer receive anything.
func (r *Registry) Dispose() {
	r.mu.Lock()
	offs := r.offs
	handles := r.handles
	r.offs = nil
	r.transport = nil
	r.handles = make(map[int]*Handle)
	r.mu.Unlock()

	for _, off := range offs {
		off()
	}
	for _, h := range handles {
		h.detach()
	}
}

// Bound reports whether the registry has a transport.
func (r *Registry) Bound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transport != nil
}

// Logger returns the registry logger.
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

// Preload installs the initial-snapshot cache. While it is present, every
// new handle synchronously consumes the next batch instead of asking the
// server for an immediate snapshot.
func (r *Registry) Preload(batches ...json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initials = append(r.initials, batches...)
	r.preloaded = true
}

// Preloaded reports whether an initial-snapshot cache is installed.
func (r *Registry) Preloaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preloaded && len(r.initials) > 0
}

// DiscardPreload drops whatever is left of the initial-snapshot cache.
func (r *Registry) DiscardPreload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initials = nil
	r.preloaded = false
}

// takeInitial pops one cached batch. ok is false once the cache is empty.
func (r *Registry) takeInitial() (batch json.RawMessage, ok bool) {
	if !r.preloaded || len(r.initials) == 0 {
		return nil, false
	}
	batch = r.initials[0]
	r.initials = r.initials[1:]
	if len(r.initials) == 0 {
		r.preloaded = false
	}
	return normalize(batch), true
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Handles returns the registered handles ordered by id.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedHandles()
}

func (r *Registry) sortedHandles() []*Handle {
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Get returns the handle registered under id.
func (r *Registry) Get(id int) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) handleChanged(args []json.RawMessage) {
	if len(args) == 0 {
		r.logger.Warn("Dropping changed frame without subscription id")
		return
	}

	var id int
	if err := json.Unmarshal(args[0], &id); err != nil {
		r.logger.Warn("Dropping changed frame with bad subscription id", zap.Error(err))
		return
	}

	var batch json.RawMessage
	if len(args) > 1 {
		batch = normalize(args[1])
	}

	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("Dropping changes for unknown subscription", logger.Subscription(id))
		return
	}

	h.deliver(batch)
}

func (r *Registry) handleClose([]json.RawMessage) {
	r.mu.Lock()
	handles := r.sortedHandles()
	r.mu.Unlock()

	for _, h := range handles {
		h.setActive(false)
	}
}

func (r *Registry) handleServerChange([]json.RawMessage) {
	r.mu.Lock()
	handles := r.sortedHandles()
	r.mu.Unlock()

	r.logger.Info("Server changed, resetting subscriptions", zap.Int("subscriptions", len(handles)))
	for _, h := range handles {
		h.handler(nil)
	}
}

// normalize maps an absent or JSON null batch to nil.
func normalize(batch json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(batch)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
