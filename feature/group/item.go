package group

import (
	"context"
	"reflect"
	"slices"
	"sync/atomic"
	"time"

	"livesync/core/debounce"
	"livesync/core/event"
	"livesync/core/latch"
	"livesync/core/logger"
	"livesync/core/reconcile"

	"go.uber.org/zap"
)

// Item is one named member of a group. It wraps exactly one container and
// tracks whether that container is loaded and inited.
//
// Fields other than the flags are guarded by the owning group's lock.
type Item struct {
	owner *Group
	name  string

	kind        reconcile.Kind
	publication string
	params      []any
	value       reconcile.Replica
	external    bool
	handler     Handler
	beforeInit  BeforeInit
	preventBind bool

	attached bool
	loaded   atomic.Bool
	inited   atomic.Bool

	// loadChanges holds what arrived before the group loaded.
	loadPending bool
	loadChanges reconcile.Changes

	debounceWait time.Duration
	debouncer    *debounce.Debouncer
	pending      reconcile.Changes

	events      event.Emitter[Event]
	loadLatch   *latch.Resettable
	initLatch   *latch.Resettable
	unloadLatch *latch.Resettable
	logger      *zap.Logger
}

func newItem(g *Group, d Definition) *Item {
	return &Item{
		owner:       g,
		name:        d.name,
		loadLatch:   latch.NewResettable(),
		initLatch:   latch.NewResettable(),
		unloadLatch: latch.NewResettable(),
		logger:      g.logger.With(logger.Item(d.name)),
	}
}

// Name returns the item name.
func (it *Item) Name() string { return it.name }

// Kind returns the container kind.
func (it *Item) Kind() reconcile.Kind {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return it.kind
}

// Publication returns the publication name, or "" for a caller-owned value
// that has none.
func (it *Item) Publication() string {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return it.publication
}

// Params returns the publication arguments.
func (it *Item) Params() []any {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return slices.Clone(it.params)
}

// Value returns the wrapped container.
func (it *Item) Value() reconcile.Replica {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return it.value
}

// PreventBind reports whether the item is kept off the group target.
func (it *Item) PreventBind() bool {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return it.preventBind
}

// Attached reports whether the item belongs to its group.
func (it *Item) Attached() bool {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	return it.attached
}

// IsLoaded reports whether the container delivered data since it last
// unloaded.
func (it *Item) IsLoaded() bool { return it.loaded.Load() }

// IsInited reports whether the container delivered anything at all.
func (it *Item) IsInited() bool { return it.inited.Load() }

// On registers fn for an item event and returns a func removing it.
func (it *Item) On(name string, fn func(Event)) (off func()) {
	return it.events.On(name, fn)
}

// Loaded blocks until the item loads.
func (it *Item) Loaded(ctx context.Context) error { return it.loadLatch.Wait(ctx) }

// Inited blocks until the item inits.
func (it *Item) Inited(ctx context.Context) error { return it.initLatch.Wait(ctx) }

// Unloaded blocks until the item unloads.
func (it *Item) Unloaded(ctx context.Context) error { return it.unloadLatch.Wait(ctx) }

// matches reports whether d describes the item's current subscription.
func (it *Item) matches(d Definition) bool {
	if d.External() != it.external || (d.External() && d.value != it.value) {
		return false
	}
	return d.kind == it.kind &&
		d.publication == it.publication &&
		paramsEqual(d.params, it.params) &&
		sameFunc(d.handler, it.handler) &&
		sameFunc(d.beforeInit, it.beforeInit)
}

// defineLocked copies d into the item. It does not touch the container.
func (it *Item) defineLocked(d Definition) {
	it.kind = d.kind
	it.handler = d.handler
	it.beforeInit = d.beforeInit
	it.external = d.External()
	it.value = d.value
	it.publication = d.publication
	it.params = slices.Clone(d.params)
	it.applyOptionsLocked(d)
}

func (it *Item) applyOptionsLocked(d Definition) {
	wait := it.owner.itemDebounce
	if d.debounce != nil {
		wait = *d.debounce
	}
	it.preventBind = d.preventBind

	if it.debouncer != nil && it.debounceWait == wait {
		return
	}
	if it.debouncer != nil {
		it.debouncer.Stop()
		it.debouncer = nil
		it.pending = nil
	}
	it.debounceWait = wait
	if wait >= 0 {
		it.debouncer = debounce.New(wait, it.flush)
	}
}

// notifier returns the container callback for value. Deliveries for a
// replaced value or a detached item are dropped.
func (it *Item) notifier(value reconcile.Replica) reconcile.Notifier {
	return func(changes reconcile.Changes, live bool) {
		g := it.owner
		g.mu.Lock()
		defer g.unlock()

		if !it.attached || it.value != value {
			return
		}
		g.handleUpdateLocked(it, changes, live)
	}
}

// subscribe opens the container subscription, or replays the current
// contents of an unsourced container through the item callback. It must be
// called without the group lock.
func (it *Item) subscribe(value reconcile.Replica) {
	if value.Sourced() {
		if err := value.Subscribe(); err != nil {
			it.logger.Error("Failed to subscribe", zap.Error(err))
		}
		return
	}
	if n := value.Notifier(); n != nil {
		n(value.SnapshotChanges(), value.Snapshot() != nil)
	}
}

// emitUpdateLocked schedules the item update notification, merging changes
// into a pending one.
func (it *Item) emitUpdateLocked(changes reconcile.Changes) {
	if it.debouncer == nil {
		it.emitNowLocked(changes)
		return
	}
	it.pending = mergeChanges(it.pending, changes)
	it.debouncer.Trigger()
}

func (it *Item) flush() {
	g := it.owner
	g.mu.Lock()
	defer g.unlock()

	changes := it.pending
	it.pending = nil
	if !it.attached {
		return
	}
	it.emitNowLocked(changes)
}

func (it *Item) emitNowLocked(changes reconcile.Changes) {
	g := it.owner
	ev := Event{Name: EventUpdate, Group: g, Item: it, Value: it.value, Changes: changes}
	g.later(func() {
		it.events.Emit(EventUpdate, ev)
		g.events.Emit(UpdateEvent(it.name), ev)
	})
	g.emitUpdateLocked()
}

// loadLocked delivers what arrived before the group loaded.
func (it *Item) loadLocked() {
	if !it.loadPending {
		return
	}
	changes := it.loadChanges
	it.loadPending, it.loadChanges = false, nil

	g := it.owner
	if h := it.handler; h != nil {
		g.later(func() { h(g, changes) })
	}
	ev := Event{Name: EventLoad, Group: g, Item: it, Value: it.value, Changes: changes}
	g.later(func() { it.events.Emit(EventLoad, ev) })

	it.loadLatch.Signal()
	if it.unloadLatch.Signaled() {
		it.unloadLatch.Reset()
	}
}

func (it *Item) initLocked() {
	g := it.owner
	ev := Event{Name: EventInit, Group: g, Item: it, Value: it.value}
	g.later(func() { it.events.Emit(EventInit, ev) })
	it.initLatch.Signal()
}

func (it *Item) unloadLocked() {
	g := it.owner
	if h := it.handler; h != nil {
		g.later(func() { h(g, nil) })
	}
	ev := Event{Name: EventUnload, Group: g, Item: it, Value: it.value}
	g.later(func() { it.events.Emit(EventUnload, ev) })

	it.unloadLatch.Signal()
	if it.loadLatch.Signaled() {
		it.loadLatch.Reset()
	}
}

func (it *Item) resetLatchesLocked() {
	for _, l := range []*latch.Resettable{it.loadLatch, it.initLatch, it.unloadLatch} {
		if l.Signaled() {
			l.Reset()
		}
	}
}

func paramsEqual(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// mergeChanges folds next into prev. Either may be nil.
func mergeChanges(prev, next reconcile.Changes) reconcile.Changes {
	switch {
	case isNil(next):
		return prev
	case isNil(prev):
		return next.Merge(nil)
	default:
		return prev.Merge(next)
	}
}

// Subscribe opens the item subscription. An unsourced value replays its
// current contents instead.
func (it *Item) Subscribe() {
	if v := it.Value(); v != nil {
		it.subscribe(v)
	}
}

// Unsubscribe closes the item subscription.
func (it *Item) Unsubscribe() {
	if v := it.Value(); v != nil {
		v.Unsubscribe()
	}
}

// Renew reopens an open subscription with a new publication or params. An
// empty publication or nil params keeps the current one.
func (it *Item) Renew(publication string, params []any) error {
	v := it.Value()
	if v == nil {
		return nil
	}
	if err := v.Renew(publication, params); err != nil {
		return err
	}

	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	if it.value == v {
		it.publication = v.Publication()
		it.params = v.Params()
	}
	return nil
}
