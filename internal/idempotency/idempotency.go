// Package idempotency records which chat actions have already been executed,
// so that repeated confirmations of the same intent create a single trip.
package idempotency

import (
	"context"
	"time"
)

// Pending is the value held by a key while its action is still running.
const Pending = "pending"

// Store claims keys for the duration of an action and remembers its result.
type Store interface {
	// Claim atomically reserves key. When the key is already held, claimed is
	// false and value is either Pending or the recorded result.
	Claim(ctx context.Context, key string, ttl time.Duration) (value string, claimed bool, err error)

	// Complete records the result for a claimed key.
	Complete(ctx context.Context, key, value string, ttl time.Duration) error

	// Release drops a claim so the action can be retried.
	Release(ctx context.Context, key string) error
}
