package reconcile

import (
	"encoding/json"
	"slices"
	"sync"

	"livesync/core/errors"
	"livesync/core/subscription"
	"livesync/core/utils"
)

// ListHandler is called after every batch with the list, its changeset and
// the applied batch (nil on clear).
type ListHandler func(l *List, changes *ListChanges, batch json.RawMessage)

// List is an ordered, duplicate-free replica of opaque values, optionally
// kept sorted ascending (1) or descending (-1).
type List struct {
	mu        sync.RWMutex
	items     []any
	direction int

	handler ListHandler
	notify  notifierSlot
	src     *source
	opts    options
}

// NewList returns an empty list not fed by any subscription.
func NewList(handler ListHandler, opts ...Option) *List {
	return &List{
		handler: handler,
		opts:    buildOptions(opts),
	}
}

// NewSubscribedList returns a list fed by publication on reg. When subscribe
// is set the subscription opens right away.
func NewSubscribedList(reg *subscription.Registry, publication string, params []any, handler ListHandler, subscribe bool, opts ...Option) (*List, error) {
	l := NewList(handler, opts...)
	l.src = newSource(reg, KindList, publication, params, l.ApplyDiff, l.opts.logger)
	if subscribe {
		if err := l.Subscribe(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *List) Kind() Kind { return KindList }

func (l *List) Publication() string { return l.src.name() }

func (l *List) Params() []any { return l.src.args() }

// ApplyDiff applies a batch of i, a and d ops. Any other op clears the list
// and processing continues with the next op. The list is sorted once at the
// end when an op asked for it.
func (l *List) ApplyDiff(batch json.RawMessage) error {
	ops, err := DecodeBatch(batch)
	if err != nil {
		l.apply(nil, nil)
		return err
	}
	if ops == nil {
		l.apply(nil, nil)
		return nil
	}
	return l.apply(ops, nullToNil(batch))
}

func (l *List) apply(ops []Op, batch json.RawMessage) error {
	changes := &ListChanges{}
	var errs []error

	l.mu.Lock()
	before := slices.Clone(l.items)
	held := func(item any) bool { return containsEqual(before, item) }
	if ops == nil {
		l.clearLocked(changes, held)
	}

	shouldSort := false
	for _, op := range ops {
		switch op.Tag {
		case OpInitial:
			var items []any
			if err := json.Unmarshal(op.Arg(0), &items); err != nil && op.Arg(0) != nil {
				errs = append(errs, errors.Wrap(err, "list initial items"))
				l.clearLocked(changes, held)
				continue
			}
			direction := 0
			if raw := op.Arg(1); raw != nil {
				var d any
				if err := json.Unmarshal(raw, &d); err == nil {
					direction = sign(d)
				}
			}

			l.direction = direction
			if direction != 0 {
				shouldSort = true
			}

			next := make([]any, 0, len(items))
			for _, item := range items {
				if !containsEqual(next, item) {
					next = append(next, item)
				}
			}
			for _, old := range l.items {
				if !containsEqual(next, old) {
					changes.delete(old, held(old))
				}
			}
			l.items = next
			for _, item := range next {
				changes.add(item)
			}

		case OpAdd:
			item, err := decodeValue(op.Arg(0))
			if err != nil {
				errs = append(errs, errors.Wrap(err, "list add item"))
				l.clearLocked(changes, held)
				continue
			}
			if !containsEqual(l.items, item) {
				l.items = append(l.items, item)
				if l.direction != 0 {
					shouldSort = true
				}
				changes.add(item)
			}

		case OpDelete:
			item, err := decodeValue(op.Arg(0))
			if err != nil {
				errs = append(errs, errors.Wrap(err, "list delete item"))
				l.clearLocked(changes, held)
				continue
			}
			if i := slices.IndexFunc(l.items, func(v any) bool { return utils.Equal(v, item) }); i >= 0 {
				l.items = slices.Delete(l.items, i, i+1)
				changes.delete(item, held(item))
			}

		default:
			l.clearLocked(changes, held)
		}
	}

	if shouldSort && l.direction != 0 {
		slices.SortStableFunc(l.items, directionCompare(l.direction))
	}
	l.mu.Unlock()

	l.dispatch(changes, batch)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (l *List) clearLocked(changes *ListChanges, held func(any) bool) {
	for _, item := range l.items {
		changes.delete(item, held(item))
	}
	l.items = nil
	l.direction = 0
}

func (l *List) dispatch(changes *ListChanges, batch json.RawMessage) {
	if n := l.notify.get(); n != nil {
		n(changes, batch != nil)
		return
	}
	if l.handler != nil {
		l.handler(l, changes, batch)
	}
}

// Update encodes ops and applies them. A nil ops slice clears the list.
func (l *List) Update(ops ...[]any) error {
	if ops == nil {
		return l.ApplyDiff(nil)
	}
	batch, err := Encode(ops...)
	if err != nil {
		return err
	}
	return l.ApplyDiff(batch)
}

// Items returns a copy of the items in order.
func (l *List) Items() []any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len returns the number of items.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Contains reports whether an item equal to item is held.
func (l *List) Contains(item any) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return containsEqual(l.items, item)
}

// SortDirection returns -1, 0 or 1.
func (l *List) SortDirection() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

// Snapshot returns an initial op restoring the items and sort direction, or
// nil when the list is empty and unsorted.
func (l *List) Snapshot() json.RawMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.items) == 0 && l.direction == 0 {
		return nil
	}
	batch, err := Encode(ListInitial(slices.Clone(l.items), l.direction))
	if err != nil {
		return nil
	}
	return batch
}

func (l *List) SnapshotChanges() Changes {
	items := l.Items()
	return &ListChanges{Items: items, Added: slices.Clone(items)}
}

// Value returns a copy of the items.
func (l *List) Value() any { return l.Items() }

// MarshalJSON encodes the items as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	items := l.Items()
	if items == nil {
		items = []any{}
	}
	return json.Marshal(items)
}

func (l *List) Notifier() Notifier {
	if n := l.notify.get(); n != nil {
		return n
	}
	if l.handler == nil {
		return nil
	}
	return func(changes Changes, live bool) {
		c, _ := changes.(*ListChanges)
		if c == nil {
			c = &ListChanges{}
		}
		var batch json.RawMessage
		if live {
			batch = l.Snapshot()
		}
		l.handler(l, c, batch)
	}
}

func (l *List) SetNotifier(fn Notifier) { l.notify.set(fn) }

func (l *List) Sourced() bool { return l.src.sourced() }

func (l *List) Subscribe() error { return l.src.subscribe() }

func (l *List) Unsubscribe() { l.src.unsubscribe() }

func (l *List) Subscribed() bool { return l.src.subscribed() }

func (l *List) Renew(publication string, params []any) error {
	return l.src.renew(publication, params)
}

func containsEqual(items []any, item any) bool {
	return slices.ContainsFunc(items, func(v any) bool { return utils.Equal(v, item) })
}

func decodeValue(raw json.RawMessage) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func sign(v any) int {
	f, ok := utils.ToFloat(v)
	switch {
	case !ok || f == 0:
		return 0
	case f > 0:
		return 1
	default:
		return -1
	}
}
