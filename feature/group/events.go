package group

import "livesync/core/reconcile"

// Event names emitted by groups and items.
const (
	EventLoad   = "load"
	EventInit   = "init"
	EventUnload = "unload"
	EventUpdate = "update"
)

// UpdateEvent returns the group event emitted when the named item updates.
func UpdateEvent(name string) string {
	return EventUpdate + "." + name
}

// Event is the payload of every group and item notification.
type Event struct {
	Name  string
	Group *Group
	// Item is set for item events and per-item group updates.
	Item *Item
	// Value is the item value for item events.
	Value reconcile.Replica
	// Changes is the merged changeset of an update, nil when the update was
	// caused by a lifecycle transition.
	Changes reconcile.Changes
	// Values is the group value snapshot for group events.
	Values Values
}
