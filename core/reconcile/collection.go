package reconcile

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"livesync/core/errors"
	"livesync/core/subscription"
)

// CollectionHandler is called after every batch with the collection, its
// changeset and the applied batch (nil on clear).
type CollectionHandler func(c *Collection, changes *CollectionChanges, batch json.RawMessage)

// Collection is a replica of entries keyed by _id with a sorted view.
//
// Batches are serialized by applyMu. The item factory and custom entry
// updates run with mu released, so they may read the collection.
type Collection struct {
	applyMu    sync.Mutex
	mu         sync.RWMutex
	entries    map[string]Entry
	sorted     []Entry
	shadow     map[string]map[string]any
	sortList   SortSpec
	compare    Comparator
	sortFields map[string]struct{}
	factory    ItemFactory
	// applying is set while a batch runs; ItemBase.Delete calls made
	// meanwhile are queued in forgotten and applied when it ends.
	applying  bool
	forgotten []*ItemBase

	handler CollectionHandler
	notify  notifierSlot
	src     *source
	opts    options
}

// NewCollection returns an empty collection not fed by any subscription.
func NewCollection(handler CollectionHandler, opts ...Option) *Collection {
	return &Collection{
		entries: map[string]Entry{},
		shadow:  map[string]map[string]any{},
		handler: handler,
		opts:    buildOptions(opts),
	}
}

// NewSubscribedCollection returns a collection fed by publication on reg.
// When subscribe is set the subscription opens right away.
func NewSubscribedCollection(reg *subscription.Registry, publication string, params []any, handler CollectionHandler, subscribe bool, opts ...Option) (*Collection, error) {
	c := NewCollection(handler, opts...)
	c.src = newSource(reg, KindCollection, publication, params, c.ApplyDiff, c.opts.logger)
	if subscribe {
		if err := c.Subscribe(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) Kind() Kind { return KindCollection }

func (c *Collection) Publication() string { return c.src.name() }

func (c *Collection) Params() []any { return c.src.args() }

// SetItemFactory installs f for building entries. Held entries are rebuilt
// from their last payloads. A nil f restores plain documents.
func (c *Collection) SetItemFactory(f ItemFactory) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.beginLocked()
	defer c.end()

	c.factory = f
	for i := range c.sorted {
		id := c.sorted[i].ID()
		next := c.newEntryLocked(maps.Clone(c.shadow[id]))
		c.entries[id] = next
		c.sorted[i] = next
	}
}

// beginLocked takes mu for a batch. applyMu must be held.
func (c *Collection) beginLocked() {
	c.mu.Lock()
	c.applying = true
}

// end applies the deletes queued during the batch and releases mu.
func (c *Collection) end() {
	c.applying = false
	for _, b := range c.forgotten {
		c.forgetLocked(b)
	}
	c.forgotten = nil
	c.mu.Unlock()
}

// newEntryLocked builds the entry for payload. A factory runs with mu
// released.
func (c *Collection) newEntryLocked(payload map[string]any) Entry {
	if c.factory == nil {
		return Document(maps.Clone(payload))
	}
	f := c.factory
	c.mu.Unlock()
	defer c.mu.Lock()
	return f(c, maps.Clone(payload))
}

// mergeLocked applies payload to an existing entry. Plain documents lose the
// fields of their previous payload first unless atomic. Custom entries are
// updated with mu released.
func (c *Collection) mergeLocked(e Entry, payload map[string]any, atomic bool) {
	if doc, ok := e.(Document); ok {
		if !atomic {
			for k := range c.shadow[doc.ID()] {
				delete(doc, k)
			}
		}
		doc.Update(maps.Clone(payload))
		return
	}
	c.mu.Unlock()
	defer c.mu.Lock()
	e.Update(maps.Clone(payload))
}

// ApplyDiff applies a batch of i, c, u and d ops. Any other op clears the
// collection and processing continues with the next op.
func (c *Collection) ApplyDiff(batch json.RawMessage) error {
	ops, err := DecodeBatch(batch)
	if err != nil {
		c.apply(nil, nil)
		return err
	}
	return c.apply(ops, nullToNil(batch))
}

func (c *Collection) apply(ops []Op, batch json.RawMessage) error {
	changes := &CollectionChanges{}
	var (
		errs    []error
		removed []Entry
	)

	c.applyMu.Lock()
	c.beginLocked()
	before := make(map[string]struct{}, len(c.entries))
	for id := range c.entries {
		before[id] = struct{}{}
	}
	held := func(id string) bool {
		_, ok := before[id]
		return ok
	}
	if ops == nil {
		c.clearLocked(changes, held)
	}

	shouldSort := false
	for _, op := range ops {
		switch op.Tag {
		case OpInitial:
			var items []map[string]any
			if raw := op.Arg(0); raw != nil {
				if err := json.Unmarshal(raw, &items); err != nil {
					errs = append(errs, errors.Wrap(err, "collection initial items"))
					c.clearLocked(changes, held)
					continue
				}
			}
			var spec SortSpec
			if raw := op.Arg(1); raw != nil {
				if err := json.Unmarshal(raw, &spec); err != nil {
					errs = append(errs, err)
				}
			}
			c.setSortLocked(spec)
			removed = append(removed, c.initialLocked(items, changes, held)...)

		case OpCreate, OpUpdate:
			var payload map[string]any
			if err := json.Unmarshal(op.Arg(0), &payload); err != nil || payload == nil {
				errs = append(errs, errors.Newf("collection %q op payload is not a JSON object", op.Tag))
				c.clearLocked(changes, held)
				continue
			}
			atomic, touched := parseUpdateMode(op.Arg(1), payload)
			if c.upsertLocked(payload, atomic, touched, changes) {
				shouldSort = true
			}

		case OpDelete:
			var id any
			if raw := op.Arg(0); raw != nil {
				_ = json.Unmarshal(raw, &id)
			}
			key := Document{IDField: id}.ID()
			if e, ok := c.removeLocked(key); ok {
				changes.delete(key, held(key))
				if c.factory != nil {
					removed = append(removed, e)
				}
			}

		default:
			c.clearLocked(changes, held)
		}
	}

	if shouldSort && c.compare != nil {
		slices.SortStableFunc(c.sorted, func(a, b Entry) int { return c.compare(a, b) })
	}
	c.end()
	c.applyMu.Unlock()

	for _, e := range removed {
		e.Delete()
	}

	c.dispatch(changes, batch)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (c *Collection) setSortLocked(spec SortSpec) {
	if len(spec) == 0 {
		c.sortList = nil
		c.compare = nil
		c.sortFields = nil
		return
	}
	c.sortList = spec
	c.compare = NewComparator(spec)
	c.sortFields = make(map[string]struct{})
	for _, f := range spec.Fields() {
		c.sortFields[f] = struct{}{}
	}
}

// initialLocked merges items against the held entries and returns the
// custom entries it removed.
func (c *Collection) initialLocked(items []map[string]any, changes *CollectionChanges, held func(string) bool) []Entry {
	var (
		removed []Entry
		order   []string
	)
	incoming := make(map[string]map[string]any, len(items))
	for _, payload := range items {
		if payload == nil {
			continue
		}
		id := payloadID(payload)
		if _, dup := incoming[id]; dup {
			continue
		}
		incoming[id] = payload
		order = append(order, id)
	}

	current := slices.Clone(c.sorted)
	survivors := make([]Entry, 0, len(current))
	for _, e := range current {
		id := e.ID()
		payload, ok := incoming[id]
		if !ok {
			delete(c.entries, id)
			delete(c.shadow, id)
			changes.delete(id, held(id))
			if c.factory != nil {
				removed = append(removed, e)
			}
			continue
		}
		c.mergeLocked(e, payload, false)
		c.shadow[id] = payload
		changes.update(e)
		survivors = append(survivors, e)
		delete(incoming, id)
	}
	c.sorted = survivors

	for _, id := range order {
		payload, ok := incoming[id]
		if !ok {
			continue
		}
		e := c.newEntryLocked(payload)
		c.entries[id] = e
		c.shadow[id] = payload
		c.sorted = append(c.sorted, e)
		changes.add(e)
	}

	if c.sortList != nil {
		c.sorted = c.sorted[:0]
		for _, id := range order {
			c.sorted = append(c.sorted, c.entries[id])
		}
	}
	return removed
}

// upsertLocked creates or updates one entry and reports whether the sorted
// view needs re-sorting.
func (c *Collection) upsertLocked(payload map[string]any, atomic bool, touched []string, changes *CollectionChanges) bool {
	id := payloadID(payload)
	e, ok := c.entries[id]
	if !ok {
		e = c.newEntryLocked(payload)
		c.entries[id] = e
		c.shadow[id] = payload
		c.sorted = append(c.sorted, e)
		changes.add(e)
		return c.sortList != nil
	}

	c.mergeLocked(e, payload, atomic)
	if atomic {
		merged := maps.Clone(c.shadow[id])
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, payload)
		c.shadow[id] = merged
	} else {
		c.shadow[id] = payload
	}
	changes.update(e)

	if c.sortList == nil {
		return false
	}
	for _, f := range touched {
		if _, ok := c.sortFields[f]; ok {
			return true
		}
	}
	return false
}

func (c *Collection) removeLocked(id string) (Entry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	delete(c.entries, id)
	delete(c.shadow, id)
	c.sorted = slices.DeleteFunc(c.sorted, func(x Entry) bool { return x.ID() == id })
	return e, true
}

// forget drops the entry owning b without notifying; an entry that has
// since been replaced under the same key is kept. During a batch the drop
// is queued until the batch ends.
func (c *Collection) forget(b *ItemBase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applying {
		c.forgotten = append(c.forgotten, b)
		return
	}
	c.forgetLocked(b)
}

func (c *Collection) forgetLocked(b *ItemBase) {
	e, ok := c.entries[b.id]
	if !ok {
		return
	}
	if owner, ok := e.(interface{ itemBase() *ItemBase }); !ok || owner.itemBase() != b {
		return
	}
	c.removeLocked(b.id)
}

func (c *Collection) clearLocked(changes *CollectionChanges, held func(string) bool) {
	for _, e := range c.sorted {
		changes.delete(e.ID(), held(e.ID()))
	}
	c.entries = map[string]Entry{}
	c.shadow = map[string]map[string]any{}
	c.sorted = nil
	c.setSortLocked(nil)
}

func (c *Collection) dispatch(changes *CollectionChanges, batch json.RawMessage) {
	if n := c.notify.get(); n != nil {
		n(changes, batch != nil)
		return
	}
	if c.handler != nil {
		c.handler(c, changes, batch)
	}
}

// parseUpdateMode reads the third element of a c or u op: true marks an
// atomic patch, a string list names the touched fields, anything else
// touches every payload field.
func parseUpdateMode(raw json.RawMessage, payload map[string]any) (atomic bool, touched []string) {
	keys := slices.Collect(maps.Keys(payload))
	if raw == nil {
		return false, keys
	}

	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		if flag {
			return true, keys
		}
		return false, keys
	}

	var fields []string
	if err := json.Unmarshal(raw, &fields); err == nil {
		return false, fields
	}
	return false, keys
}

// Update encodes ops and applies them. A nil ops slice clears the
// collection.
func (c *Collection) Update(ops ...[]any) error {
	if ops == nil {
		return c.ApplyDiff(nil)
	}
	batch, err := Encode(ops...)
	if err != nil {
		return err
	}
	return c.ApplyDiff(batch)
}

// Get returns the entry keyed id.
func (c *Collection) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Sorted returns a copy of the sorted view.
func (c *Collection) Sorted() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.sorted)
}

// Keys returns the entry keys in sorted-view order.
func (c *Collection) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entryIDs(c.sorted)
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SortList returns the active sort list, or nil.
func (c *Collection) SortList() SortSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.sortList)
}

// Shadow returns a copy of the last payload applied to id.
func (c *Collection) Shadow(id string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.shadow[id]
	return maps.Clone(p), ok
}

// Snapshot returns an initial op restoring the entries, in sorted-view
// order, and the sort list; nil when empty and unsorted.
func (c *Collection) Snapshot() json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 && c.sortList == nil {
		return nil
	}

	items := make([]map[string]any, 0, len(c.sorted))
	for _, e := range c.sorted {
		items = append(items, c.shadow[e.ID()])
	}
	batch, err := Encode([]any{OpInitial, items, c.sortList})
	if err != nil {
		return nil
	}
	return batch
}

func (c *Collection) SnapshotChanges() Changes {
	sorted := c.Sorted()
	return &CollectionChanges{Items: sorted, Added: slices.Clone(sorted)}
}

// Value returns a copy of the sorted view.
func (c *Collection) Value() any { return c.Sorted() }

// MarshalJSON encodes the sorted view as a JSON array.
func (c *Collection) MarshalJSON() ([]byte, error) {
	sorted := c.Sorted()
	if sorted == nil {
		sorted = []Entry{}
	}
	return json.Marshal(sorted)
}

func (c *Collection) Notifier() Notifier {
	if n := c.notify.get(); n != nil {
		return n
	}
	if c.handler == nil {
		return nil
	}
	return func(changes Changes, live bool) {
		ch, _ := changes.(*CollectionChanges)
		if ch == nil {
			ch = &CollectionChanges{}
		}
		var batch json.RawMessage
		if live {
			batch = c.Snapshot()
		}
		c.handler(c, ch, batch)
	}
}

func (c *Collection) SetNotifier(fn Notifier) { c.notify.set(fn) }

func (c *Collection) Sourced() bool { return c.src.sourced() }

func (c *Collection) Subscribe() error { return c.src.subscribe() }

func (c *Collection) Unsubscribe() { c.src.unsubscribe() }

func (c *Collection) Subscribed() bool { return c.src.subscribed() }

func (c *Collection) Renew(publication string, params []any) error {
	return c.src.renew(publication, params)
}
