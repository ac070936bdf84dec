// Package dedup tracks recently seen event identifiers so duplicate webhook
// deliveries are suppressed. Stores are bounded by a retention window: ids
// older than the window may be processed again, which keeps memory usage
// bounded regardless of event volume.
package dedup

import "context"

// Store records event identifiers that have been processed.
//
// CheckAndMark is the only way an id becomes seen, and it must be atomic:
// two concurrent calls with the same id yield exactly one true result.
// Unmark rolls the id back after a failed delivery so the sender's retry of
// the same event is treated as new again.
type Store interface {
	// CheckAndMark records id as seen and reports whether this was the
	// first observation within the retention window.
	CheckAndMark(ctx context.Context, id string) (bool, error)

	// Unmark forgets id so a later CheckAndMark treats it as new.
	Unmark(ctx context.Context, id string) error

	// Len returns the number of ids currently tracked.
	Len(ctx context.Context) (int, error)

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
