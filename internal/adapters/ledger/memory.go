// Package ledger implements the fired-event dedupe ledger. A key marked
// fired stays fired for the entry TTL, giving at-most-once presentation per
// (identity, instant) pair no matter how often the poller re-checks.
package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process ledger used when no Redis is configured.
// Entries expire after ttl; Sweep drops expired entries and is run daily
// by the maintenance job.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory ledger with the given entry TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Fired(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		delete(m.entries, key)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = m.now().Add(m.ttl)
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dropped := 0
	for key, expiry := range m.entries {
		if now.After(expiry) {
			delete(m.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
