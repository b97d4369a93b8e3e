package driven

import (
	"context"
	"time"
)

// DistributedLock provides named locks shared by every bot process.
// The bot uses one lock per user so that two processes never run transitions
// for the same user at the same time.
type DistributedLock interface {
	// Acquire attempts to take a named lock without blocking.
	// Returns true if acquired, false if another holder has it.
	// The lock expires after ttl where the backend supports expiry.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock held by this process.
	// Safe to call when the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend pushes back the expiry of a held lock.
	// Returns an error if the lock is not held by this process.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
