// Package subscription manages server subscriptions over a transport.
//
// A Registry is bound to one transport and allocates Handles. Each Handle
// sends its subscribe request whenever the transport opens and hands the
// raw diff batches the server pushes for it to its handler. A closed
// transport marks every handle inactive; a server change delivers a nil
// batch to every handle so replicas clear themselves.
//
// The registry can be primed with an initial-snapshot cache via Preload.
// While the cache has entries, each new handle consumes one synchronously
// and asks the server for no immediate snapshot on its first request.
package subscription
