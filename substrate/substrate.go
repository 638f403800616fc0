// Package substrate defines the synchronous string-keyed persistence contract
// collections write their serialized blobs through. One key is conventionally
// owned by exactly one collection; nothing else writes that key.
package substrate

import "context"

// Substrate is a string-keyed persistent store. Implementations must make Set
// atomic per key: a completed write leaves the full value in place, a failed
// one leaves the previous value untouched. Capacity exhaustion is reported as
// a domain QUOTA_EXCEEDED error so callers can roll back in-memory state.
type Substrate interface {
	// Get returns the value stored under key, with ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backing store.
	Close() error
}
