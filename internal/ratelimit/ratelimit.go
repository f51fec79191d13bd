// Package ratelimit bounds repeated attempts per key within a rolling window.
// It guards the login endpoint against credential stuffing.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// AttemptStore records an attempt for key and reports whether it is still
// within the allowed budget.
type AttemptStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	count       int
	windowStart time.Time
}

// Memory is an in-process AttemptStore. Entries are pruned lazily on access.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]memoryEntry
}

func NewMemory(max int, window time.Duration) *Memory {
	if max < 1 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Memory{
		max:     max,
		window:  window,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || now.Sub(entry.windowStart) >= m.window {
		entry = memoryEntry{windowStart: now}
	}
	entry.count++
	m.entries[key] = entry

	if len(m.entries) > 10000 {
		for k, e := range m.entries {
			if now.Sub(e.windowStart) >= m.window {
				delete(m.entries, k)
			}
		}
	}

	return entry.count <= m.max, nil
}
