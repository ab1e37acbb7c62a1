package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used for tests and single-node
// deployments without Redis. Entries honor the same TTL semantics as the
// remote store: expiry is checked on read and enforced by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryStore creates an empty store. A non-positive ttl disables
// expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return nil, nil
	}
	return entry.session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	s.Touch()

	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = time.Now().Add(m.ttl)
	}
	m.sessions[s.SessionID] = memoryEntry{session: s.Clone(), expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.sessions[sessionID]
	return ok && !entry.expired(time.Now()), nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
// Called periodically by the Janitor; Redis handles this via key TTLs.
func (m *MemoryStore) Sweep(_ context.Context) int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.sessions {
		if entry.expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports live (non-expired) entries.
func (m *MemoryStore) Len() int {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, entry := range m.sessions {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
