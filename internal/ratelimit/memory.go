package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries caps how many clients a Memory limiter tracks.
const DefaultMaxEntries = 10000

// Memory is an in-process Limiter backed by a mutex-protected map.
//
// The map is bounded: when it is full, entries whose cooldown has already
// elapsed are swept first, and if that frees nothing the oldest entry is
// evicted. An evicted client simply gets a fresh cooldown on its next try.
type Memory struct {
	mu         sync.Mutex
	last       map[string]time.Time
	cooldown   time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryOption customises a Memory limiter.
type MemoryOption func(*Memory)

// WithClock replaces time.Now. Tests use it to step past the cooldown.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithMaxEntries sets the map bound. Values below 1 keep the default.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemory creates a Memory limiter. A non-positive cooldown uses
// DefaultCooldown.
func NewMemory(cooldown time.Duration, opts ...MemoryOption) *Memory {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	m := &Memory{
		last:       make(map[string]time.Time),
		cooldown:   cooldown,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// compile-time check that *Memory implements Limiter
var _ Limiter = (*Memory)(nil)

// Allow implements Limiter. It never returns an error.
func (m *Memory) Allow(_ context.Context, clientID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if prev, ok := m.last[clientID]; ok && now.Sub(prev) < m.cooldown {
		return false, nil
	}

	if _, tracked := m.last[clientID]; !tracked && len(m.last) >= m.maxEntries {
		m.makeRoom(now)
	}
	m.last[clientID] = now
	return true, nil
}

// Len reports how many clients are currently tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}

// makeRoom frees at least one slot. Caller holds m.mu.
func (m *Memory) makeRoom(now time.Time) {
	for id, at := range m.last {
		if now.Sub(at) >= m.cooldown {
			delete(m.last, id)
		}
	}
	if len(m.last) < m.maxEntries {
		return
	}

	var oldestID string
	var oldestAt time.Time
	for id, at := range m.last {
		if oldestID == "" || at.Before(oldestAt) {
			oldestID, oldestAt = id, at
		}
	}
	delete(m.last, oldestID)
}
