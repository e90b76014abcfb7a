package reconcile

import (
	"encoding/json"
	"slices"
	"sync"

	"livesync/core/logger"
	"livesync/core/subscription"

	"go.uber.org/zap"
)

// Option configures a container.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the container logger. Decode failures are logged at warn.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger.OrNop(l)
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// source ties a container to a publication on a registry. The zero value
// (nil registry) is an unsourced container for which every operation is a
// no-op.
//
// The registry can deliver the first batch before NewHandle returns, so the
// lock is not held across it.
type source struct {
	mu          sync.Mutex
	registry    *subscription.Registry
	kind        Kind
	publication string
	params      []any
	handle      *subscription.Handle
	opening     bool
	gen         uint64
	apply       func(json.RawMessage) error
	logger      *zap.Logger
}

func newSource(reg *subscription.Registry, kind Kind, publication string, params []any, apply func(json.RawMessage) error, l *zap.Logger) *source {
	if params == nil {
		params = []any{}
	}
	return &source{
		registry:    reg,
		kind:        kind,
		publication: publication,
		params:      params,
		apply:       apply,
		logger:      l.With(logger.Publication(publication)),
	}
}

func (s *source) sourced() bool {
	return s != nil && s.registry != nil
}

func (s *source) name() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publication
}

func (s *source) args() []any {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.params)
}

func (s *source) subscribed() bool {
	if !s.sourced() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil || s.opening
}

func (s *source) subscribe() error {
	if !s.sourced() {
		return nil
	}
	s.mu.Lock()
	if s.handle != nil || s.opening {
		s.mu.Unlock()
		return nil
	}
	s.opening = true
	gen := s.gen
	publication, params := s.publication, slices.Clone(s.params)
	s.mu.Unlock()

	h, err := s.registry.NewHandle(s.kind, publication, params, s.deliver, true)

	s.mu.Lock()
	if gen != s.gen {
		// Unsubscribed or renewed while opening; a newer opening may be in
		// flight and owns the flag.
		s.mu.Unlock()
		if h != nil {
			h.Cancel()
		}
		return nil
	}
	s.opening = false
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.handle = h
	s.mu.Unlock()
	return nil
}

func (s *source) deliver(batch json.RawMessage) {
	if err := s.apply(batch); err != nil {
		s.logger.Warn("Applied undecodable diff batch as a clear", zap.Error(err))
	}
}

func (s *source) unsubscribe() {
	if !s.sourced() {
		return
	}
	s.mu.Lock()
	h := s.closeLocked()
	s.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
}

func (s *source) closeLocked() *subscription.Handle {
	h := s.handle
	s.handle = nil
	if s.opening {
		s.gen++
		s.opening = false
	}
	return h
}

// renew reopens an open subscription; a closed one is left closed.
func (s *source) renew(publication string, params []any) error {
	if !s.sourced() {
		return nil
	}
	s.mu.Lock()
	if s.handle == nil && !s.opening {
		s.mu.Unlock()
		return nil
	}
	h := s.closeLocked()
	if publication != "" {
		s.publication = publication
	}
	if params != nil {
		s.params = params
	}
	s.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	return s.subscribe()
}

// notifierSlot holds a container's generic notifier.
type notifierSlot struct {
	mu sync.RWMutex
	fn Notifier
}

func (n *notifierSlot) get() Notifier {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fn
}

func (n *notifierSlot) set(fn Notifier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fn = fn
}
