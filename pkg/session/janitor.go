package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired entries and reports how many were dropped.
// MemoryStore implements it; the Redis store relies on key TTLs instead.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Janitor periodically sweeps expired sessions out of an in-memory store.
type Janitor struct {
	sweeper  Sweeper
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor creates a janitor sweeping at the given interval.
func NewJanitor(sweeper Sweeper, interval time.Duration) *Janitor {
	return &Janitor{sweeper: sweeper, interval: interval}
}

// Start launches the background sweep loop.
func (j *Janitor) Start(ctx context.Context) {
	if j.cancel != nil {
		return
	}
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})

	go j.run(ctx)

	slog.Info("Session janitor started", "interval", j.interval)
}

// Stop signals the loop to exit and waits for it to finish.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
	slog.Info("Session janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := j.sweeper.Sweep(ctx); removed > 0 {
				slog.Info("Swept expired sessions", "count", removed)
			}
		}
	}
}
