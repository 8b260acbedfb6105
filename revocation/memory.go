package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation list with the same contract as
// [Store]. Expiry is enforced lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemory returns an empty in-memory revocation list.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
	}
}

// Blacklist records tokenID until now+ttl. Non-positive ttl is a no-op.
func (m *Memory) Blacklist(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[tokenID] = time.Now().Add(ttl)
	m.mu.Unlock()
	return nil
}

// IsBlacklisted reports whether tokenID holds an unexpired entry.
func (m *Memory) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	deadline, ok := m.entries[tokenID]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		m.mu.Lock()
		delete(m.entries, tokenID)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}
