package session

import "sync"

// Locker serializes turns per session id. Two concurrent requests for the
// same session observe get -> mutate -> save in order; requests for
// different sessions never contend.
//
// The table grows with distinct session ids and is never pruned; entries
// are a single mutex each, bounded by the store's TTL-driven traffic.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty lock table.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the caller owns the session's turn.
func (l *Locker) Lock(sessionID string) {
	l.lockFor(sessionID).Lock()
}

// Unlock releases the session's turn.
func (l *Locker) Unlock(sessionID string) {
	l.lockFor(sessionID).Unlock()
}

func (l *Locker) lockFor(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}
