// Package snapshot persists replica snapshots so a restarted client can
// prime the registry's initial-snapshot cache before the network delivers.
//
// A snapshot is one Entry per group item, in item order. Capture builds the
// entries from a live group, a Store saves and loads them, and Batches turns
// loaded entries into the arguments of subscription.Registry.Preload.
//
// # Backends
//
//   - DBStore keeps the entries in the replica_snapshots table through GORM
//     (mysql or sqlite). Save replaces the whole set in one transaction.
//   - ObjectStore keeps one JSON document, <prefix>/snapshots.json, in a
//     MinIO or S3 bucket.
//
// # Usage
//
//	entries, err := store.Load(ctx)
//	reg.Preload(snapshot.Batches(entries)...)
//	...
//	err = store.Save(ctx, snapshot.Capture(g))
package snapshot
