package port

import "context"

// AvailabilityCache is the advisory fast path: a short-lived snapshot of
// remaining availability served to pre-submit checks, plus idempotency keys
// for mutation requests. Nothing read from it is ever trusted at commit
// time.
type AvailabilityCache interface {
	// Snapshot returns the cached availability map and whether it was
	// present.
	Snapshot(ctx context.Context) (map[string]int, bool, error)

	StoreSnapshot(ctx context.Context, snap map[string]int) error

	// Invalidate drops the snapshot after a committed mutation.
	Invalidate(ctx context.Context) error

	// SetIdempotency sets a request key, returning false if it already
	// exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
