package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMonitor_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var failing atomic.Bool
	probe := func(context.Context) error {
		if failing.Load() {
			return errors.New("probe failed")
		}
		return nil
	}

	m := NewMonitor(probe, time.Second, zerolog.Nop())
	go m.Start(ctx, 10*time.Millisecond)

	waitTrue(t, m.IsHealthy)
	if err := m.Check(context.Background()); err != nil {
		t.Fatalf("Check while healthy: %v", err)
	}

	failing.Store(true)
	waitTrue(t, func() bool { return !m.IsHealthy() })
	if err := m.Check(context.Background()); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}

	failing.Store(false)
	waitTrue(t, m.IsHealthy)
}

func TestMonitor_StartsUnhealthy(t *testing.T) {
	m := NewMonitor(func(context.Context) error { return nil }, time.Second, zerolog.Nop())
	if m.IsHealthy() {
		t.Fatal("monitor should report unhealthy before the first probe")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
