package reconcile

import (
	"encoding/json"

	"livesync/core/subscription"
)

// Kind is the container kind. The values are shared with the subscription
// protocol.
type Kind = subscription.Kind

const (
	KindRecord     = subscription.KindRecord
	KindList       = subscription.KindList
	KindCollection = subscription.KindCollection
)

// Notifier receives the changeset of every applied batch. live is false when
// the batch was nil, i.e. the container was reset or its data became
// unavailable.
type Notifier func(changes Changes, live bool)

// Replica is the capability set shared by the three container kinds. The
// group layer drives containers only through it.
type Replica interface {
	// Kind returns the container kind.
	Kind() Kind
	// Publication returns the publication name, or "" for containers not fed
	// by a subscription.
	Publication() string
	// Params returns the publication arguments.
	Params() []any

	// ApplyDiff applies one raw diff batch. A nil or JSON null batch clears
	// the container. Undecodable input clears the container and is returned
	// as an error.
	ApplyDiff(batch json.RawMessage) error

	// Sourced reports whether the container is fed by a subscription.
	Sourced() bool
	// Subscribe opens the subscription if it is not open yet.
	Subscribe() error
	// Unsubscribe cancels the subscription if it is open.
	Unsubscribe()
	// Subscribed reports whether the subscription is open.
	Subscribed() bool
	// Renew reopens an open subscription, optionally switching publication
	// ("" keeps the current one) and params (nil keeps the current ones).
	Renew(publication string, params []any) error

	// Snapshot returns the current contents as a replayable diff, or nil
	// when the container is empty.
	Snapshot() json.RawMessage
	// SnapshotChanges returns the current contents as an initial changeset.
	SnapshotChanges() Changes
	// Value returns a copy of the contents in plain Go values.
	Value() any

	// Notifier returns the installed notifier.
	Notifier() Notifier
	// SetNotifier replaces the container's handler with fn.
	SetNotifier(fn Notifier)
}

var (
	_ Replica = (*Record)(nil)
	_ Replica = (*List)(nil)
	_ Replica = (*Collection)(nil)
)
