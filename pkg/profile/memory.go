package profile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used when no database is configured.
// Profiles live for the lifetime of the process.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
}

func (m *MemoryStore) Update(_ context.Context, sender string, mutate func(p *Profile, created bool)) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[sender]
	created := !ok
	if created {
		p = New(sender, m.now().UTC())
	}
	mutate(p, created)
	m.profiles[sender] = p
	return p.Clone(), nil
}

func (m *MemoryStore) GetBySender(_ context.Context, sender string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[sender]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// List returns profiles ordered by most recent activity. A non-empty
// status filters; limit <= 0 means no cap.
func (m *MemoryStore) List(_ context.Context, limit int, status string) ([]*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports stored profiles.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}
