// Package cache provides a get-or-compute-and-store operation over the kv
// backend. Backend failures degrade to direct computation and are never
// surfaced to callers; a cache outage must not take the pipeline down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/kv"
)

// Cache wraps a kv.Store with JSON serialization.
type Cache struct {
	store kv.Store
}

// New returns a Cache over store.
func New(store kv.Store) *Cache { return &Cache{store: store} }

// Key builds a `prefix:identifier:v<version>` cache key. Identifier must be
// content-derived (a hash), never a raw address.
func Key(prefix, identifier string, version int) string {
	return fmt.Sprintf("%s:%s:v%d", prefix, identifier, version)
}

// GetOrCompute returns the cached value for key, or runs compute, stores the
// result with ttl, and returns it. Two concurrent misses may both compute;
// the duplicate work is accepted because writes are idempotent.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var out T
		if uerr := json.Unmarshal(raw, &out); uerr == nil {
			return out, nil
		}
		// Undecodable entry (stale shape); fall through to recompute.
		log.Debug().Str("key", key).Msg("cache entry undecodable, recomputing")
	} else if !errors.Is(err, kv.ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed, computing directly")
	}

	out, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if raw, merr := json.Marshal(out); merr == nil {
		if serr := c.store.Set(ctx, key, raw, ttl); serr != nil {
			log.Warn().Err(serr).Str("key", key).Msg("cache write failed")
		}
	}
	return out, nil
}
