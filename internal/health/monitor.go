// Package health keeps a cached view of backend health so the health
// endpoint never blocks a request on a live probe.
package health

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnhealthy is returned by Check while the cached state is down.
var ErrUnhealthy = errors.New("backend unhealthy")

// Probe checks one dependency; nil means healthy.
type Probe func(ctx context.Context) error

// Monitor periodically runs a probe and caches the result.
type Monitor struct {
	healthy      atomic.Int32
	probe        Probe
	probeTimeout time.Duration
	log          zerolog.Logger
}

func NewMonitor(probe Probe, probeTimeout time.Duration, log zerolog.Logger) *Monitor {
	m := &Monitor{probe: probe, probeTimeout: probeTimeout, log: log.With().Str("component", "health").Logger()}
	m.healthy.Store(0)
	return m
}

// IsHealthy returns the cached flag.
func (m *Monitor) IsHealthy() bool { return m.healthy.Load() == 1 }

// Check satisfies the health endpoint contract against the cached flag.
func (m *Monitor) Check(context.Context) error {
	if m.IsHealthy() {
		return nil
	}
	return ErrUnhealthy
}

// Start probes immediately, then on every tick until ctx is done. State
// transitions are logged once, not per tick.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(-1)
	eval := func() {
		probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
		err := m.probe(probeCtx)
		cancel()

		cur := int32(1)
		if err != nil {
			cur = 0
		}
		m.healthy.Store(cur)
		if cur != prev {
			if cur == 1 {
				m.log.Info().Msg("backend health: UP")
			} else {
				m.log.Error().Err(err).Msg("backend health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
