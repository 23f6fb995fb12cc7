// Package kv defines the key-value backend used for caching, usage counters,
// and report persistence. Implementations live under internal/kv/<driver>/
// (sqlite, postgres).
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence contract. Incr and SetNX must be atomic at the
// backend; a read-modify-write implementation is not acceptable because quota
// and rate-limit counters are mutated by concurrent requests.
type Store interface {
	// Get returns the value for key. Expired entries behave as absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically increments the integer counter at key and returns the
	// new value. The first write in a (possibly expired) slot resets the
	// counter to 1 and applies ttl; later increments keep the original expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// SetNX stores value only if key is absent (or expired). Returns true if
	// the write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies backend connectivity.
	HealthCheck(ctx context.Context) error

	Close() error
}
