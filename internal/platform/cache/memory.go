package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
	counter   int64
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a process-local Cache used when Redis is not configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok || e.expired(m.now()) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.items[key]
	if !ok || e.expired(now) {
		e = entry{}
		if window > 0 {
			e.expiresAt = now.Add(window)
		}
	}
	e.counter++
	m.items[key] = e
	return e.counter, nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, old, data []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.items[key]
	if ok && e.expired(now) {
		delete(m.items, key)
		ok = false
	}
	if ok != (old != nil) || (ok && !bytes.Equal(e.data, old)) {
		return false, nil
	}
	if data == nil {
		delete(m.items, key)
		return true, nil
	}
	next := entry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		next.expiresAt = now.Add(ttl)
	}
	m.items[key] = next
	return true, nil
}

func (m *Memory) Close() error { return nil }
