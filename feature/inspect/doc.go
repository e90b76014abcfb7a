// Package inspect exposes a running group over HTTP.
//
// # Routes
//
//   - GET /health: group state (loaded, inited, items) with 200, or 503
//     while the group is not loaded.
//   - GET /values: every item value as one JSON object, in group order.
//   - GET /values/:name: one item value and its state; 404 for an unknown
//     name.
package inspect
