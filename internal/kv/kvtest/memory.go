// Package kvtest provides an in-memory kv.Store fake and a shared
// conformance suite run against every driver.
package kvtest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/leaselens/leaselens/internal/kv"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a mutex-guarded in-memory kv.Store for tests. Now is
// overridable so expiry behavior (month boundaries, rate-limit windows) can
// be tested without sleeping.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time

	// FailAll makes every operation return an error, for fail-open tests.
	FailAll error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry), Now: time.Now}
}

func (m *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(m.Now())
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return nil, m.FailAll
	}
	e, ok := m.data[key]
	if !ok || m.expired(e) {
		return nil, kv.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	m.data[key] = m.newEntry(value, ttl)
	return nil
}

func (m *MemoryStore) newEntry(value []byte, ttl time.Duration) entry {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.Now().Add(ttl)
	}
	return e
}

func (m *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return 0, m.FailAll
	}
	e, ok := m.data[key]
	if !ok || m.expired(e) {
		m.data[key] = m.newEntry([]byte("1"), ttl)
		return 1, nil
	}
	n, _ := strconv.ParseInt(string(e.value), 10, 64)
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	m.data[key] = e
	return n, nil
}

func (m *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return false, m.FailAll
	}
	if e, ok := m.data[key]; ok && !m.expired(e) {
		return false, nil
	}
	m.data[key] = m.newEntry(value, ttl)
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) HealthCheck(context.Context) error {
	if m.FailAll != nil {
		return m.FailAll
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ kv.Store = (*MemoryStore)(nil)
