package session

import "context"

// Store persists sessions between turns.
//
// Get returns (nil, nil) when the session is absent — including on
// transport errors, which implementations log — so callers always treat a
// miss as "start a fresh session".
type Store interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}
