// Package usage governs who may run a decode and how often: monthly plan
// quotas, a one-shot trial, and a fixed-window rate limiter, all backed by
// atomic kv counters.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/kv"
	"github.com/leaselens/leaselens/internal/model"
)

// TrialTTL is how long a consumed trial marker blocks a second free decode.
const TrialTTL = 7 * 24 * time.Hour

// PlanResolver maps an identity to its plan name. The static default reads a
// configured map; a billing integration can replace it.
type PlanResolver interface {
	PlanFor(ctx context.Context, identity string) (string, error)
}

// StaticPlans resolves every identity to the same plan unless overridden.
// Plan limits come from configuration; limit 0 means no subscription access.
type StaticPlans struct {
	// Overrides maps identity → plan name.
	Overrides map[string]string
	// Default is the plan for identities with no override.
	Default string
}

func (s StaticPlans) PlanFor(_ context.Context, identity string) (string, error) {
	if plan, ok := s.Overrides[identity]; ok {
		return plan, nil
	}
	return s.Default, nil
}

// Decision is the outcome of a CanDecode check.
type Decision struct {
	Allowed   bool
	Trial     bool
	Plan      string
	Limit     int
	Remaining int
}

// Governor enforces monthly plan quotas with a trial fallback.
type Governor struct {
	store  kv.Store
	plans  PlanResolver
	limits map[string]int
	log    zerolog.Logger
	now    func() time.Time
}

func NewGovernor(store kv.Store, plans PlanResolver, limits map[string]int, log zerolog.Logger) *Governor {
	return &Governor{
		store:  store,
		plans:  plans,
		limits: limits,
		log:    log.With().Str("component", "usage").Logger(),
		now:    time.Now,
	}
}

func quotaKey(identity string, now time.Time) string {
	return fmt.Sprintf("usage:%s:%s", identity, now.UTC().Format("2006-01"))
}

func trialKey(identity string) string {
	return "trial:" + identity
}

// untilNextMonth returns the duration until the first instant of next month,
// so a quota counter created mid-month expires exactly at the boundary.
func untilNextMonth(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return next.Sub(now)
}

// CanDecode consumes one decode slot for identity. The one-time trial is
// checked first and grants a single free decode before any monthly-limit
// logic; after the trial is burned, plan quota applies. Limit 0 means the
// plan grants no decodes beyond the trial. Backend outages fail open: a kv
// error must not block decodes.
func (g *Governor) CanDecode(ctx context.Context, identity string) (Decision, error) {
	now := g.now()
	plan, err := g.plans.PlanFor(ctx, identity)
	if err != nil {
		return Decision{}, model.E(model.CodeAPI, "plan lookup failed", err)
	}
	limit := g.limits[plan]

	ok, err := g.store.SetNX(ctx, trialKey(identity), []byte(now.UTC().Format(time.RFC3339)), TrialTTL)
	if err != nil {
		g.log.Warn().Err(err).Str("identity", identity).Msg("usage backend unavailable, failing open")
		return Decision{Allowed: true, Plan: plan, Limit: limit, Remaining: limit}, nil
	}
	if ok {
		g.log.Info().Str("identity", identity).Msg("trial decode consumed")
		return Decision{Allowed: true, Trial: true, Plan: plan, Limit: limit, Remaining: limit}, nil
	}

	if limit <= 0 {
		return Decision{Allowed: false, Plan: plan}, nil
	}

	used, err := g.store.Incr(ctx, quotaKey(identity, now), untilNextMonth(now))
	if err != nil {
		g.log.Warn().Err(err).Str("identity", identity).Msg("usage backend unavailable, failing open")
		return Decision{Allowed: true, Plan: plan, Limit: limit, Remaining: limit}, nil
	}
	if used <= int64(limit) {
		return Decision{Allowed: true, Plan: plan, Limit: limit, Remaining: limit - int(used)}, nil
	}
	// Over quota. The extra increment is harmless: the counter only gates,
	// it is not billed.
	return Decision{Allowed: false, Plan: plan, Limit: limit, Remaining: 0}, nil
}

// Used reports the current month's consumed quota without incrementing.
func (g *Governor) Used(ctx context.Context, identity string) (int, error) {
	raw, err := g.store.Get(ctx, quotaKey(identity, g.now()))
	if err == kv.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(string(raw), "%d", &n); err != nil {
		return 0, model.NewParse("corrupt quota counter", err)
	}
	return n, nil
}
