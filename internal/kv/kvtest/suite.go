package kvtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leaselens/leaselens/internal/kv"
)

// Run exercises a compliance suite against a kv.Store implementation.
// makeStore should return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) kv.Store) {
	t.Helper()

	ctx := context.Background()
	s := makeStore(t)

	t.Run("get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "absent"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set get roundtrip", func(t *testing.T) {
		if err := s.Set(ctx, "k1", []byte(`{"a":1}`), time.Hour); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil || string(got) != `{"a":1}` {
			t.Fatalf("Get: got=%q err=%v", got, err)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		if err := s.Set(ctx, "k1", []byte("v2"), time.Hour); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, _ := s.Get(ctx, "k1")
		if string(got) != "v2" {
			t.Fatalf("overwrite failed, got %q", got)
		}
	})

	t.Run("ttl expiry", func(t *testing.T) {
		if err := s.Set(ctx, "short", []byte("x"), 30*time.Millisecond); err != nil {
			t.Fatalf("Set: %v", err)
		}
		time.Sleep(60 * time.Millisecond)
		if _, err := s.Get(ctx, "short"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected expiry, got %v", err)
		}
	})

	t.Run("incr sequence", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			n, err := s.Incr(ctx, "ctr", time.Hour)
			if err != nil || n != want {
				t.Fatalf("Incr: n=%d err=%v want %d", n, err, want)
			}
		}
	})

	t.Run("incr restarts after expiry", func(t *testing.T) {
		if _, err := s.Incr(ctx, "ctr2", 30*time.Millisecond); err != nil {
			t.Fatalf("Incr: %v", err)
		}
		time.Sleep(60 * time.Millisecond)
		n, err := s.Incr(ctx, "ctr2", time.Hour)
		if err != nil || n != 1 {
			t.Fatalf("expired counter should restart at 1, got n=%d err=%v", n, err)
		}
	})

	t.Run("incr concurrent no lost updates", func(t *testing.T) {
		const workers = 8
		const perWorker = 10
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					if _, err := s.Incr(ctx, "ctr3", time.Hour); err != nil {
						t.Errorf("Incr: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
		n, err := s.Incr(ctx, "ctr3", time.Hour)
		if err != nil || n != workers*perWorker+1 {
			t.Fatalf("counter = %d err=%v, want %d", n, err, workers*perWorker+1)
		}
	})

	t.Run("setnx", func(t *testing.T) {
		ok, err := s.SetNX(ctx, "nx", []byte("first"), time.Hour)
		if err != nil || !ok {
			t.Fatalf("first SetNX: ok=%v err=%v", ok, err)
		}
		ok, err = s.SetNX(ctx, "nx", []byte("second"), time.Hour)
		if err != nil || ok {
			t.Fatalf("second SetNX should not write: ok=%v err=%v", ok, err)
		}
		got, _ := s.Get(ctx, "nx")
		if string(got) != "first" {
			t.Fatalf("SetNX overwrote: %q", got)
		}
	})

	t.Run("setnx after expiry", func(t *testing.T) {
		if _, err := s.SetNX(ctx, "nx2", []byte("a"), 30*time.Millisecond); err != nil {
			t.Fatalf("SetNX: %v", err)
		}
		time.Sleep(60 * time.Millisecond)
		ok, err := s.SetNX(ctx, "nx2", []byte("b"), time.Hour)
		if err != nil || !ok {
			t.Fatalf("SetNX on expired slot should write: ok=%v err=%v", ok, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		_ = s.Set(ctx, "gone", []byte("x"), time.Hour)
		if err := s.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "gone"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "never-existed"); err != nil {
			t.Fatalf("Delete absent key: %v", err)
		}
	})

	t.Run("health", func(t *testing.T) {
		if err := s.HealthCheck(ctx); err != nil {
			t.Fatalf("HealthCheck: %v", err)
		}
	})
}
