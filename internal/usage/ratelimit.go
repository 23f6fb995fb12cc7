package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/kv"
)

// LimiterConfig carries the fixed-window ceilings.
type LimiterConfig struct {
	Window        time.Duration
	Authenticated int
	Anonymous     int
}

// LimitResult describes one admission decision, with the fields an HTTP layer
// needs for X-RateLimit-* and Retry-After headers.
type LimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limiter is a fixed-window counter per scope. A backend outage fails open:
// throttling is protective, not load-bearing, and a dead counter store must
// not take decodes down with it.
type Limiter struct {
	store kv.Store
	cfg   LimiterConfig
	log   zerolog.Logger
	now   func() time.Time
}

func NewLimiter(store kv.Store, cfg LimiterConfig, log zerolog.Logger) *Limiter {
	return &Limiter{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "ratelimit").Logger(),
		now:   time.Now,
	}
}

// Allow consumes one slot for scope. Authenticated callers get the higher
// ceiling.
func (l *Limiter) Allow(ctx context.Context, scope string, authenticated bool) LimitResult {
	limit := l.cfg.Anonymous
	if authenticated {
		limit = l.cfg.Authenticated
	}

	now := l.now()
	windowStart := now.Truncate(l.cfg.Window)
	reset := windowStart.Add(l.cfg.Window)
	key := fmt.Sprintf("rl:%s:%d", scope, windowStart.Unix())

	count, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		l.log.Warn().Err(err).Str("scope", scope).Msg("rate-limit backend unavailable, failing open")
		return LimitResult{Allowed: true, Limit: limit, Remaining: limit, Reset: reset}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if count > int64(limit) {
		return LimitResult{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset.Sub(now),
		}
	}
	return LimitResult{Allowed: true, Limit: limit, Remaining: remaining, Reset: reset}
}
