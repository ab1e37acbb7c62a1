package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryBus is the in-process Bus used for tests and single-node
// deployments without Redis. Each publish fans out to subscribers in their
// own goroutines; delivery is best-effort and not durable.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	wg       sync.WaitGroup
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]Handler)}
}

// Start is a no-op; in-memory delivery needs no consumer loop.
func (b *MemoryBus) Start(_ context.Context) error {
	return nil
}

func (b *MemoryBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MemoryBus) Publish(ctx context.Context, eventType string, payload any) error {
	fields, raw, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	evt := Event{Type: eventType, Payload: fields, Raw: raw}

	// Subscribers outlive the publishing request, so they run on a context
	// detached from its cancellation.
	hctx := context.WithoutCancel(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New("bus is closed")
	}
	for _, h := range b.handlers[eventType] {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			dispatch(hctx, h, evt)
		}()
	}
	return nil
}

// Close rejects further publishes and waits for in-flight handlers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
