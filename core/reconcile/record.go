package reconcile

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"sync"

	"livesync/core/errors"
	"livesync/core/subscription"
)

// RecordHandler is called after every update with the record, its
// changeset and the applied payload (nil on clear).
type RecordHandler func(r *Record, changes *RecordChanges, payload map[string]any)

// Record is a single key/value replica whose every update replaces all of
// its fields.
type Record struct {
	mu     sync.RWMutex
	fields map[string]any
	shadow map[string]any

	handler RecordHandler
	notify  notifierSlot
	src     *source
	opts    options
}

// NewRecord returns an empty record not fed by any subscription.
func NewRecord(handler RecordHandler, opts ...Option) *Record {
	return &Record{
		fields:  map[string]any{},
		handler: handler,
		opts:    buildOptions(opts),
	}
}

// NewSubscribedRecord returns a record fed by publication on reg. When
// subscribe is set the subscription opens right away.
func NewSubscribedRecord(reg *subscription.Registry, publication string, params []any, handler RecordHandler, subscribe bool, opts ...Option) (*Record, error) {
	r := NewRecord(handler, opts...)
	r.src = newSource(reg, KindRecord, publication, params, r.ApplyDiff, r.opts.logger)
	if subscribe {
		if err := r.Subscribe(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Record) Kind() Kind { return KindRecord }

func (r *Record) Publication() string { return r.src.name() }

func (r *Record) Params() []any { return r.src.args() }

// Update replaces every field with payload. A nil payload clears the record.
func (r *Record) Update(payload map[string]any) {
	r.mu.Lock()

	prev := r.fields
	if payload == nil {
		r.fields = map[string]any{}
		r.shadow = nil
	} else {
		r.fields = maps.Clone(payload)
		r.shadow = maps.Clone(payload)
	}

	changes := &RecordChanges{Fields: maps.Clone(r.fields)}
	for k := range prev {
		if _, ok := r.fields[k]; !ok {
			changes.Deleted = append(changes.Deleted, k)
		}
	}
	sort.Strings(changes.Deleted)
	r.mu.Unlock()

	r.dispatch(changes, payload)
}

func (r *Record) dispatch(changes *RecordChanges, payload map[string]any) {
	if n := r.notify.get(); n != nil {
		n(changes, payload != nil)
		return
	}
	if r.handler != nil {
		r.handler(r, changes, payload)
	}
}

// ApplyDiff decodes batch as a JSON object and applies it with Update.
func (r *Record) ApplyDiff(batch json.RawMessage) error {
	batch = nullToNil(batch)
	if batch == nil {
		r.Update(nil)
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(batch, &payload); err != nil {
		r.Update(nil)
		return errors.Wrap(err, "record payload is not a JSON object")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	r.Update(payload)
	return nil
}

// Get returns one field.
func (r *Record) Get(field string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.fields[field]
	return v, ok
}

// Fields returns a copy of the fields.
func (r *Record) Fields() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.fields)
}

// Keys returns the field names in lexical order.
func (r *Record) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.fields))
}

// Len returns the number of fields.
func (r *Record) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

// IsEmpty reports whether the record holds no payload.
func (r *Record) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shadow == nil
}

// Snapshot returns the last payload, or nil when empty.
func (r *Record) Snapshot() json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.shadow == nil {
		return nil
	}
	data, err := json.Marshal(r.shadow)
	if err != nil {
		return nil
	}
	return data
}

func (r *Record) SnapshotChanges() Changes {
	return &RecordChanges{Fields: r.Fields()}
}

// Value returns a copy of the fields, or nil when empty.
func (r *Record) Value() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.shadow == nil {
		return nil
	}
	return maps.Clone(r.fields)
}

// MarshalJSON encodes the fields, or null when empty.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

func (r *Record) Notifier() Notifier {
	if n := r.notify.get(); n != nil {
		return n
	}
	if r.handler == nil {
		return nil
	}
	return func(changes Changes, live bool) {
		c, _ := changes.(*RecordChanges)
		if c == nil {
			c = &RecordChanges{Fields: map[string]any{}}
		}
		var payload map[string]any
		if live {
			payload = r.Fields()
		}
		r.handler(r, c, payload)
	}
}

func (r *Record) SetNotifier(fn Notifier) { r.notify.set(fn) }

func (r *Record) Sourced() bool { return r.src.sourced() }

func (r *Record) Subscribe() error { return r.src.subscribe() }

func (r *Record) Unsubscribe() { r.src.unsubscribe() }

func (r *Record) Subscribed() bool { return r.src.subscribed() }

func (r *Record) Renew(publication string, params []any) error {
	return r.src.renew(publication, params)
}
