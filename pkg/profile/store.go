package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetBySender for senders with no profile.
var ErrNotFound = errors.New("profile not found")

// Store persists sender profiles.
//
// Update is the only write path: it loads the profile (creating a blank
// one when absent, with created=true), applies mutate, and persists the
// result atomically with respect to concurrent updates for the same
// sender.
type Store interface {
	Update(ctx context.Context, sender string, mutate func(p *Profile, created bool)) (*Profile, error)
	GetBySender(ctx context.Context, sender string) (*Profile, error)
	List(ctx context.Context, limit int, status string) ([]*Profile, error)
}
