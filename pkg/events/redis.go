package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// streamPrefix namespaces one stream per event type.
	streamPrefix = "cipher:events:"

	// streamMaxLen caps each stream; XAdd trims approximately, so late
	// subscribers see at most the most recent ~1000 entries.
	streamMaxLen = 1000

	readBatchSize  = 10
	readBlock      = 5 * time.Second
	consumeBackoff = time.Second
)

// RedisBus is a Bus backed by Redis Streams, one stream per event type.
// Publishing is durable up to the stream cap. Consumption starts at each
// stream's tail as of Start, so handlers only see events published after
// Start; within a stream, handlers run synchronously per message to
// preserve FIFO order and provide natural backpressure.
type RedisBus struct {
	client *redis.Client

	mu       sync.RWMutex
	handlers map[string][]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBus wraps an existing client. The caller owns the client's
// lifecycle; Close only stops the consumer loops.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client:   client,
		handlers: make(map[string][]Handler),
	}
}

func (b *RedisBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Start launches one consumer goroutine per event type with at least one
// subscriber. Event types subscribed after Start are not consumed.
func (b *RedisBus) Start(ctx context.Context) error {
	b.mu.RLock()
	types := make([]string, 0, len(b.handlers))
	for eventType := range b.handlers {
		types = append(types, eventType)
	}
	b.mu.RUnlock()

	// Resolve each stream's current tail before launching consumers. XRead
	// from "$" would miss anything published between Start returning and the
	// consumer's first read; a concrete ID cannot.
	startIDs := make(map[string]string, len(types))
	for _, eventType := range types {
		stream := streamPrefix + eventType
		last, err := b.client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
		if err != nil {
			return fmt.Errorf("resolving tail of %s: %w", stream, err)
		}
		startIDs[eventType] = "0-0"
		if len(last) > 0 {
			startIDs[eventType] = last[0].ID
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	for _, eventType := range types {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consume(runCtx, eventType, startIDs[eventType])
		}()
	}
	slog.Info("Redis event bus started", "event_types", len(types))
	return nil
}

func (b *RedisBus) Publish(ctx context.Context, eventType string, payload any) error {
	fields, _, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	values, err := coerceValues(fields)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamPrefix + eventType,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", eventType, err)
	}
	return nil
}

// consume tails one stream from startID until ctx is cancelled.
func (b *RedisBus) consume(ctx context.Context, eventType, startID string) {
	stream := streamPrefix + eventType
	lastID := startID

	for {
		streams, err := b.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   readBatchSize,
			Block:   readBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // block window elapsed with nothing new
			}
			if ctx.Err() != nil {
				return
			}
			slog.Error("Event stream read failed",
				"stream", stream,
				"error", err)
			select {
			case <-time.After(consumeBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				b.deliver(ctx, eventType, msg.Values)
			}
		}
	}
}

func (b *RedisBus) deliver(ctx context.Context, eventType string, values map[string]any) {
	fields := parseFields(values)
	raw, err := json.Marshal(fields)
	if err != nil {
		slog.Error("Event payload re-encoding failed",
			"event_type", eventType,
			"error", err)
		return
	}
	evt := Event{Type: eventType, Payload: fields, Raw: raw}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[eventType]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		dispatch(ctx, h, evt)
	}
}

// Close stops the consumer loops and waits for them to drain. It does not
// close the underlying Redis client.
func (b *RedisBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}
