// Package bridge owns the companion connection and the decode loop that turns
// wire frames into output events.
//
// Lifecycle:
// - bootstrap (advisory, failures become error events)
// - connect (fatal on failure, returned to the caller)
// - pump until the stream fails, then one terminal error event
package bridge
