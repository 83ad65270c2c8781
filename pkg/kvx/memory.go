package kvx

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemorySize bounds the number of values a Memory store holds.
const DefaultMemorySize = 10_000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means never
}

// Memory is an in-process Store and WindowCounter. Values live in a bounded
// LRU; each entry carries its own absolute expiry on top of the LRU's
// ceiling TTL.
type Memory struct {
	values *expirable.LRU[string, memoryEntry]

	mu        sync.Mutex
	windows   map[string][]time.Time
	lastSweep time.Time

	// Now is the clock for entry expiry; tests replace it.
	Now func() time.Time
}

// NewMemory holds at most size values, none longer than maxTTL.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{
		values:  expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		windows: make(map[string][]time.Time),
		Now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.values.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.Now().Before(e.expiresAt) {
		m.values.Remove(key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.Now().Add(ttl)
	}
	m.values.Add(key, e)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.values.Remove(k)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// RecordInWindow prunes timestamps at or before at-window, appends at and
// returns the remaining count. Keys that fall idle are swept once per window
// so abandoned logins do not accumulate.
func (m *Memory) RecordInWindow(_ context.Context, key string, at time.Time, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := at.Add(-window)
	kept := prune(m.windows[key], cutoff)
	kept = append(kept, at)
	m.windows[key] = kept

	if at.Sub(m.lastSweep) >= window {
		for k, ts := range m.windows {
			if rest := prune(ts, cutoff); len(rest) == 0 {
				delete(m.windows, k)
			} else {
				m.windows[k] = rest
			}
		}
		m.lastSweep = at
	}

	return len(kept), nil
}

// Keys reports how many window keys are tracked.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}
