package group

import (
	"context"
	"slices"
	"sync"
	"time"

	"livesync/core/debounce"
	"livesync/core/errors"
	"livesync/core/event"
	"livesync/core/latch"
	"livesync/core/logger"
	"livesync/core/reconcile"
	"livesync/core/subscription"

	"go.uber.org/zap"
)

const (
	// DefaultDebounce is the group update window.
	DefaultDebounce = 8 * time.Millisecond
	// DefaultItemDebounce is the item update window.
	DefaultItemDebounce = 4 * time.Millisecond
)

// Option configures a Group.
type Option func(*Group)

// WithTarget mirrors loaded items onto t.
func WithTarget(t Binder) Option {
	return func(g *Group) {
		g.target = t
	}
}

// WithDebounce sets the group update window. A negative duration emits
// updates synchronously.
func WithDebounce(wait time.Duration) Option {
	return func(g *Group) {
		g.debounceWait = wait
	}
}

// WithItemDebounce sets the default item update window.
func WithItemDebounce(wait time.Duration) Option {
	return func(g *Group) {
		g.itemDebounce = wait
	}
}

// WithImmediate controls whether the items given to New subscribe right
// away. It defaults to true.
func WithImmediate(immediate bool) Option {
	return func(g *Group) {
		g.immediate = immediate
	}
}

// WithLogger sets the group logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Group) {
		g.logger = logger.OrNop(l)
	}
}

// Group coordinates the load, init and unload barriers of a set of named
// containers.
type Group struct {
	mu sync.Mutex
	// calls queued while locked, run by unlock in order
	pending []func()

	registry *subscription.Registry
	target   Binder
	items    []*Item
	byName   map[string]*Item
	loaded   bool
	inited   bool
	closed   bool

	immediate    bool
	debounceWait time.Duration
	itemDebounce time.Duration
	debouncer    *debounce.Debouncer

	events      event.Emitter[Event]
	loadLatch   *latch.Resettable
	unloadLatch *latch.Resettable
	initLatch   *latch.Latch
	logger      *zap.Logger
}

// New builds a group over defs. Publication items subscribe on reg; reg may
// be nil when every definition wraps a caller-owned value.
func New(reg *subscription.Registry, defs []Definition, opts ...Option) (*Group, error) {
	g := &Group{
		registry:     reg,
		byName:       map[string]*Item{},
		immediate:    true,
		debounceWait: DefaultDebounce,
		itemDebounce: DefaultItemDebounce,
		loadLatch:    latch.NewResettable(),
		unloadLatch:  latch.NewResettable(),
		initLatch:    latch.New(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.debounceWait >= 0 {
		g.debouncer = debounce.New(g.debounceWait, g.flush)
	}

	if err := g.attach(defs, false, g.immediate); err != nil {
		return nil, err
	}
	return g, nil
}

// later queues fn to run once the group lock is released. Callers hold the
// lock.
func (g *Group) later(fn func()) {
	g.pending = append(g.pending, fn)
}

// unlock releases the lock and runs the queued calls.
func (g *Group) unlock() {
	calls := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, fn := range calls {
		fn()
	}
}

// Attach adds items. When the group is loaded it goes back to not loaded
// until the new items load.
func (g *Group) Attach(defs ...Definition) error {
	g.mu.Lock()
	reload := g.loaded
	g.mu.Unlock()
	return g.attach(defs, reload, true)
}

func (g *Group) attach(defs []Definition, reload, immediate bool) error {
	g.mu.Lock()
	if g.closed {
		g.unlock()
		return ErrClosed
	}
	if err := validateAll(defs, g.has); err != nil {
		g.unlock()
		return err
	}
	if reload {
		g.loaded = false
	}
	g.resetLatchesLocked()
	mark := len(g.pending)

	added := make([]*Item, 0, len(defs))
	var err error
	for _, d := range defs {
		it := newItem(g, d)
		it.defineLocked(d)
		if err = g.attachLocked(it, len(g.items)); err != nil {
			break
		}
		added = append(added, it)
	}
	if err != nil {
		// Roll back what this call attached.
		for _, it := range added {
			g.removeLocked(it)
		}
		g.pending = g.pending[:mark]
		g.unlock()
		return err
	}
	g.unlock()

	if immediate {
		for _, it := range added {
			it.Subscribe()
		}
	}
	return nil
}

func (g *Group) has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// attachLocked creates the item value when needed, installs the item
// callback and inserts the item at index.
func (g *Group) attachLocked(it *Item, index int) error {
	if it.value == nil {
		v, err := g.newValue(it)
		if err != nil {
			return err
		}
		it.value = v
	}

	it.attached = true
	it.loaded.Store(false)
	it.inited.Store(false)
	it.loadPending, it.loadChanges = false, nil
	it.resetLatchesLocked()

	g.items = slices.Insert(g.items, index, it)
	g.byName[it.name] = it

	value := it.value
	value.SetNotifier(it.notifier(value))
	if fn := it.beforeInit; fn != nil {
		g.later(func() { fn(g, value) })
	}
	it.logger.Debug("Item attached",
		zap.String("kind", it.kind.String()),
		zap.Bool("external", it.external))
	return nil
}

func (g *Group) newValue(it *Item) (reconcile.Replica, error) {
	if g.registry == nil {
		return nil, errors.WithHint(
			errors.Wrapf(subscription.ErrNotBound, "item %q", it.name),
			"pass a registry to group.New or define the item with ByValue",
		)
	}
	opt := reconcile.WithLogger(it.logger)
	switch it.kind {
	case reconcile.KindList:
		return reconcile.NewSubscribedList(g.registry, it.publication, it.params, nil, false, opt)
	case reconcile.KindCollection:
		return reconcile.NewSubscribedCollection(g.registry, it.publication, it.params, nil, false, opt)
	default:
		return reconcile.NewSubscribedRecord(g.registry, it.publication, it.params, nil, false, opt)
	}
}

// Detach unsubscribes and removes the named items. Unknown names are
// ignored. Removing the last unloaded item loads the group.
func (g *Group) Detach(names ...string) {
	g.mu.Lock()
	defer g.unlock()

	for _, name := range names {
		if it, ok := g.byName[name]; ok {
			g.detachLocked(it)
		}
	}
	g.tryUnloadLocked()
	g.tryLoadLocked()
}

func (g *Group) detachLocked(it *Item) {
	value := it.value
	g.later(value.Unsubscribe)

	it.loaded.Store(false)
	it.unloadLocked()
	g.removeLocked(it)
	it.logger.Debug("Item detached")
}

func (g *Group) removeLocked(it *Item) {
	it.attached = false
	if it.debouncer != nil {
		it.debouncer.Stop()
	}
	it.pending = nil
	if i := slices.Index(g.items, it); i >= 0 {
		g.items = slices.Delete(g.items, i, i+1)
	}
	delete(g.byName, it.name)
	if it.external {
		it.value.SetNotifier(nil)
	}
}

// Redefine replaces the item set with defs, matching by name. Unchanged
// items keep their subscription, changed ones resubscribe in place and
// keep their listeners, missing ones are detached and new ones attached.
func (g *Group) Redefine(defs ...Definition) error {
	if err := validateAll(defs, nil); err != nil {
		return err
	}

	g.mu.Lock()
	if g.closed {
		g.unlock()
		return ErrClosed
	}
	incoming := make(map[string]struct{}, len(defs))
	var matched, fresh []Definition
	for _, d := range defs {
		incoming[d.name] = struct{}{}
		if g.has(d.name) {
			matched = append(matched, d)
		} else {
			fresh = append(fresh, d)
		}
	}

	g.loaded = false
	g.resetLatchesLocked()
	for _, it := range slices.Clone(g.items) {
		if _, keep := incoming[it.name]; !keep {
			g.detachLocked(it)
		}
	}

	var err error
	redefined := make([]*Item, 0, len(matched))
	for _, d := range matched {
		it := g.byName[d.name]
		if err = g.redefineLocked(it, d); err != nil {
			break
		}
		redefined = append(redefined, it)
	}
	g.unlock()
	if err != nil {
		return err
	}

	for _, it := range redefined {
		it.Subscribe()
	}
	if len(fresh) > 0 {
		if err := g.attach(fresh, false, true); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.unlock()
	g.tryLoadLocked()
	return nil
}

func (g *Group) redefineLocked(it *Item, d Definition) error {
	if it.matches(d) {
		it.applyOptionsLocked(d)
		return nil
	}

	index := slices.Index(g.items, it)
	g.detachLocked(it)
	it.defineLocked(d)
	return g.attachLocked(it, index)
}

// Subscribe opens every item subscription.
func (g *Group) Subscribe() {
	for _, it := range g.Items() {
		it.Subscribe()
	}
}

// Unsubscribe closes every item subscription. Items keep their contents
// until the server or a later subscription clears them.
func (g *Group) Unsubscribe() {
	for _, it := range g.Items() {
		it.Unsubscribe()
	}
}

// Close detaches every item and stops pending notifications. A closed
// group rejects Attach and Redefine.
func (g *Group) Close() {
	g.mu.Lock()
	defer g.unlock()
	if g.closed {
		return
	}
	for _, it := range slices.Clone(g.items) {
		g.detachLocked(it)
	}
	g.tryUnloadLocked()
	g.closed = true
	if g.debouncer != nil {
		g.debouncer.Stop()
	}
}

// SetTarget moves the bindings of loaded items from the current target to
// t. t may be nil.
func (g *Group) SetTarget(t Binder) {
	g.mu.Lock()
	defer g.unlock()

	prev := g.target
	g.target = t
	for _, it := range g.items {
		if !it.loaded.Load() || it.preventBind {
			continue
		}
		name, value := it.name, it.value
		if prev != nil {
			g.later(func() { prev.Unbind(name) })
		}
		if t != nil {
			g.later(func() { t.Bind(name, value) })
		}
	}
}

// handleUpdateLocked is the barrier bookkeeping for one container delivery.
// live reports whether the container holds data after it.
func (g *Group) handleUpdateLocked(it *Item, changes reconcile.Changes, live bool) {
	switch {
	case live && g.loaded:
		it.loaded.Store(true)
		if h := it.handler; h != nil {
			g.later(func() { h(g, changes) })
		}
		it.emitUpdateLocked(changes)
	case live:
		it.loadPending = true
		it.loadChanges = mergeChanges(it.loadChanges, changes)
		it.loaded.Store(true)
		g.tryLoadLocked()
	case it.loaded.Load():
		it.loaded.Store(false)
		g.tryUnloadLocked()
	}

	if !it.inited.Load() {
		it.inited.Store(true)
		g.tryInitLocked()
	}
}

func (g *Group) allItems(pred func(*Item) bool) bool {
	for _, it := range g.items {
		if !pred(it) {
			return false
		}
	}
	return true
}

func (g *Group) tryLoadLocked() {
	if g.loaded || g.closed || !g.allItems((*Item).IsLoaded) {
		return
	}
	g.bindLocked()
	g.loaded = true
	for _, it := range g.items {
		it.loadLocked()
	}
	g.emitLocked(EventLoad)
	if g.inited {
		g.emitAllUpdatesLocked()
	}
	g.loadLatch.Signal()
	if g.unloadLatch.Signaled() {
		g.unloadLatch.Reset()
	}
	g.logger.Debug("Group loaded", zap.Int("items", len(g.items)))
}

func (g *Group) tryUnloadLocked() {
	if !g.loaded || !g.allItems(func(it *Item) bool { return !it.IsLoaded() }) {
		return
	}
	g.unbindLocked()
	g.loaded = false
	for _, it := range g.items {
		it.unloadLocked()
	}
	g.emitLocked(EventUnload)
	g.emitAllUpdatesLocked()
	g.unloadLatch.Signal()
	if g.loadLatch.Signaled() {
		g.loadLatch.Reset()
	}
	g.logger.Debug("Group unloaded", zap.Int("items", len(g.items)))
}

func (g *Group) tryInitLocked() {
	if g.inited || !g.allItems((*Item).IsInited) {
		return
	}
	g.inited = true
	if g.loaded {
		g.emitAllUpdatesLocked()
	}
	for _, it := range g.items {
		it.initLocked()
	}
	g.emitLocked(EventInit)
	g.initLatch.Signal()
	g.logger.Debug("Group inited", zap.Int("items", len(g.items)))
}

func (g *Group) bindLocked() {
	t := g.target
	if t == nil {
		return
	}
	for _, it := range g.items {
		if it.preventBind {
			continue
		}
		name, value := it.name, it.value
		g.later(func() { t.Bind(name, value) })
	}
}

func (g *Group) unbindLocked() {
	t := g.target
	if t == nil {
		return
	}
	for _, it := range g.items {
		if it.preventBind {
			continue
		}
		name := it.name
		g.later(func() { t.Unbind(name) })
	}
}

func (g *Group) resetLatchesLocked() {
	if g.loadLatch.Signaled() {
		g.loadLatch.Reset()
	}
	if g.unloadLatch.Signaled() {
		g.unloadLatch.Reset()
	}
}

func (g *Group) emitLocked(name string) {
	ev := Event{Name: name, Group: g, Values: newValues(g.items)}
	g.later(func() { g.events.Emit(name, ev) })
}

func (g *Group) emitAllUpdatesLocked() {
	if len(g.items) == 0 {
		g.emitUpdateLocked()
		return
	}
	for _, it := range g.items {
		it.emitUpdateLocked(nil)
	}
}

// emitUpdateLocked schedules the group "update" notification.
func (g *Group) emitUpdateLocked() {
	if g.debouncer == nil {
		g.emitLocked(EventUpdate)
		return
	}
	g.debouncer.Trigger()
}

func (g *Group) flush() {
	g.mu.Lock()
	defer g.unlock()
	if g.closed {
		return
	}
	g.emitLocked(EventUpdate)
}

// IsLoaded reports whether every item is loaded.
func (g *Group) IsLoaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// IsInited reports whether every item delivered at least once.
func (g *Group) IsInited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inited
}

// Items returns the items in group order.
func (g *Group) Items() []*Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.items)
}

// Item returns the named item.
func (g *Group) Item(name string) (*Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	it, ok := g.byName[name]
	return it, ok
}

// Values returns the item values in group order.
func (g *Group) Values() Values {
	g.mu.Lock()
	defer g.mu.Unlock()
	return newValues(g.items)
}

// Len returns the number of items.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// On registers fn for a group event and returns a func removing it. Use
// UpdateEvent for the per-item update events.
func (g *Group) On(name string, fn func(Event)) (off func()) {
	return g.events.On(name, fn)
}

// Loaded blocks until the group loads.
func (g *Group) Loaded(ctx context.Context) error { return g.loadLatch.Wait(ctx) }

// Inited blocks until the group inits.
func (g *Group) Inited(ctx context.Context) error { return g.initLatch.Wait(ctx) }

// Unloaded blocks until the group unloads.
func (g *Group) Unloaded(ctx context.Context) error { return g.unloadLatch.Wait(ctx) }
