package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/leaselens/leaselens/internal/kv/kvtest"
)

func newTestLimiter() (*Limiter, *kvtest.MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 8, 15, 12, 10, 0, 0, time.UTC)}
	store := kvtest.NewMemoryStore()
	store.Now = c.Now
	l := NewLimiter(store, LimiterConfig{
		Window:        time.Hour,
		Authenticated: 5,
		Anonymous:     2,
	}, zerolog.Nop())
	l.now = c.Now
	return l, store, c
}

func TestAllow_AnonymousCeilingThenReject(t *testing.T) {
	l, _, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := l.Allow(ctx, "ip:10.0.0.1", false)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Limit)
		assert.Equal(t, 1-i, res.Remaining)
	}

	res := l.Allow(ctx, "ip:10.0.0.1", false)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.Equal(t, time.Date(2026, 8, 15, 13, 0, 0, 0, time.UTC), res.Reset)
}

func TestAllow_AuthenticatedGetsHigherCeiling(t *testing.T) {
	l, _, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res := l.Allow(ctx, "token:abc", true)
		assert.True(t, res.Allowed, "request %d", i+1)
	}
	assert.False(t, l.Allow(ctx, "token:abc", true).Allowed)
}

func TestAllow_ScopesAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter()
	ctx := context.Background()

	l.Allow(ctx, "ip:10.0.0.1", false)
	l.Allow(ctx, "ip:10.0.0.1", false)
	assert.False(t, l.Allow(ctx, "ip:10.0.0.1", false).Allowed)
	assert.True(t, l.Allow(ctx, "ip:10.0.0.2", false).Allowed)
}

func TestAllow_NewWindowResetsCount(t *testing.T) {
	l, _, c := newTestLimiter()
	ctx := context.Background()

	l.Allow(ctx, "ip:10.0.0.3", false)
	l.Allow(ctx, "ip:10.0.0.3", false)
	assert.False(t, l.Allow(ctx, "ip:10.0.0.3", false).Allowed)

	c.t = c.t.Add(time.Hour)
	assert.True(t, l.Allow(ctx, "ip:10.0.0.3", false).Allowed)
}

func TestAllow_FailsOpenOnBackendError(t *testing.T) {
	l, store, _ := newTestLimiter()
	store.FailAll = errors.New("backend down")

	res := l.Allow(context.Background(), "ip:10.0.0.4", false)
	assert.True(t, res.Allowed)
}
