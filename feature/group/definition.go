package group

import (
	"reflect"
	"slices"
	"time"

	"livesync/core/errors"
	"livesync/core/reconcile"
)

var (
	// ErrUnknownValueType is returned for a ByValue definition whose value
	// is not a reconcile container.
	ErrUnknownValueType = errors.New("unknown value type")
	// ErrDuplicateName is returned when two items share a name.
	ErrDuplicateName = errors.New("duplicate item name")
	// ErrEmptyName is returned for a definition without a name.
	ErrEmptyName = errors.New("item name is required")
	// ErrClosed is returned when attaching to a closed group.
	ErrClosed = errors.New("group is closed")
)

// Handler is called with the changeset of every update of a loaded item, and
// with nil when the item unloads.
type Handler func(g *Group, changes reconcile.Changes)

// BeforeInit is called once per attach, before the item subscribes.
type BeforeInit func(g *Group, value reconcile.Replica)

// Definition describes one group item. Build it with ByPublication or
// ByValue.
type Definition struct {
	name        string
	kind        reconcile.Kind
	publication string
	params      []any
	value       reconcile.Replica
	handler     Handler
	beforeInit  BeforeInit
	debounce    *time.Duration
	preventBind bool
	err         error
}

// DefinitionOption configures a Definition.
type DefinitionOption func(*Definition)

// ByPublication defines an item fed by publication. An empty publication
// defaults to the item name and an empty kind to a record.
func ByPublication(name string, kind reconcile.Kind, publication string, opts ...DefinitionOption) Definition {
	d := Definition{name: name, kind: kind, publication: publication}
	if d.kind == "" {
		d.kind = reconcile.KindRecord
	}
	if d.publication == "" {
		d.publication = name
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.params == nil {
		d.params = []any{}
	}
	if !d.kind.Valid() {
		d.err = errors.Wrapf(ErrUnknownValueType, "item %q has kind %q", name, string(kind))
	}
	return d
}

// ByValue defines an item wrapping a caller-owned container. value must be
// a *reconcile.Record, *reconcile.List or *reconcile.Collection, or any other
// reconcile.Replica.
func ByValue(name string, value any, opts ...DefinitionOption) Definition {
	d := Definition{name: name}
	for _, opt := range opts {
		opt(&d)
	}

	replica, ok := value.(reconcile.Replica)
	if !ok || isNil(replica) || !replica.Kind().Valid() {
		d.err = errors.WithHint(
			errors.Wrapf(ErrUnknownValueType, "item %q", name),
			"pass a *reconcile.Record, *reconcile.List or *reconcile.Collection",
		)
		return d
	}
	d.value = replica
	d.kind = replica.Kind()
	d.publication = replica.Publication()
	d.params = replica.Params()
	return d
}

// WithParams sets the publication arguments.
func WithParams(params ...any) DefinitionOption {
	return func(d *Definition) {
		d.params = params
	}
}

// WithHandler sets the item handler.
func WithHandler(fn Handler) DefinitionOption {
	return func(d *Definition) {
		d.handler = fn
	}
}

// WithBeforeInit sets the hook run before the item subscribes.
func WithBeforeInit(fn BeforeInit) DefinitionOption {
	return func(d *Definition) {
		d.beforeInit = fn
	}
}

// WithDebounceOverride replaces the group's item update window for this
// item. A negative duration emits updates synchronously.
func WithDebounceOverride(wait time.Duration) DefinitionOption {
	return func(d *Definition) {
		d.debounce = &wait
	}
}

// WithPreventBind keeps the item off the group target.
func WithPreventBind() DefinitionOption {
	return func(d *Definition) {
		d.preventBind = true
	}
}

// Name returns the item name.
func (d Definition) Name() string { return d.name }

// Kind returns the container kind.
func (d Definition) Kind() reconcile.Kind { return d.kind }

// Publication returns the resolved publication name.
func (d Definition) Publication() string { return d.publication }

// Params returns the publication arguments.
func (d Definition) Params() []any { return slices.Clone(d.params) }

// External reports whether the definition wraps a caller-owned value.
func (d Definition) External() bool { return d.value != nil }

// Err returns the error found while building the definition.
func (d Definition) Err() error { return d.err }

func (d Definition) validate() error {
	if d.err != nil {
		return d.err
	}
	if d.name == "" {
		return ErrEmptyName
	}
	return nil
}

func validateAll(defs []Definition, taken func(string) bool) error {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return err
		}
		if _, dup := seen[d.name]; dup || (taken != nil && taken(d.name)) {
			return errors.Wrapf(ErrDuplicateName, "item %q", d.name)
		}
		seen[d.name] = struct{}{}
	}
	return nil
}

// sameFunc compares two funcs of the same type by code pointer.
func sameFunc(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) == isNil(b)
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
