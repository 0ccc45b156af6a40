package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates runs across engine instances.
// A per-source lock prevents a manual "run now" racing a scheduler tick;
// the identity ledger's insert-if-absent remains the final guard.
type DistributedLock interface {
	// Acquire attempts to take the named lock with a TTL.
	// Returns true if acquired, false if held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release releases the named lock if held by this instance.
	Release(ctx context.Context, name string) error
}
