// Package reconcile maintains local replicas of server publications by
// applying incremental diff batches.
//
// Three container kinds share one capability interface, Replica:
//
//   - Record holds one key/value bag. Every payload replaces all fields.
//   - List holds an ordered, duplicate-free sequence of values, optionally
//     sorted ascending or descending.
//   - Collection holds entries keyed by _id plus a sorted view ordered by a
//     multi-field sort list.
//
// # Diff vocabulary
//
// A batch is a JSON array of ops, each op a JSON array whose first element
// is its tag:
//
//	["i", items, sort?]          replace everything (list sort is -1|0|1,
//	                             collection sort is {"field":±1,...})
//	["a", item]                  list add
//	["d", item|key]              list or collection delete
//	["c", item]                  collection create
//	["u", patch, true|fields?]   collection update
//
// Unknown tags and malformed ops clear the container; processing continues
// with the next op. A null batch clears the container and reports the
// data as unavailable.
//
// # Changesets
//
// Every batch produces one changeset (RecordChanges, ListChanges or
// CollectionChanges) listing affected, added and deleted values. A clear
// reports every previously held value as deleted.
//
// # Sorting
//
// Sorting runs once at the end of a batch, only when an op invalidated the
// order, and is stable. Collection comparators are built from the sort list
// by NewComparator; dotted paths reach into nested objects.
//
// # Subscriptions
//
// NewSubscribedRecord, NewSubscribedList and NewSubscribedCollection feed a
// container from a subscription.Registry. Subscribe, Unsubscribe and Renew
// control the subscription.
//
//	users, err := reconcile.NewSubscribedList(reg, "users", nil,
//	    func(l *reconcile.List, changes *reconcile.ListChanges, batch json.RawMessage) {
//	        log.Info("users changed", zap.Int("added", len(changes.Added)))
//	    }, true)
package reconcile
