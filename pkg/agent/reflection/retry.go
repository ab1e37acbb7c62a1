package reflection

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Progressive temperature tiering across attempts: a balanced first pass, a
// creative second, a conservative last. Cycled when more retries are
// configured.
var attemptTemperatures = []float64{0.7, 0.9, 0.4}

// AttemptFunc runs one generation attempt at the given temperature and
// returns a validated Response. ctx carries the per-attempt deadline.
type AttemptFunc func(ctx context.Context, temperature float64) (*Response, error)

// Retrier drives multi-attempt generation. Generator errors, timeouts and
// evaluator rejections all consume an attempt; exhaustion falls back to an
// emergency in-persona reply rather than an error.
type Retrier struct {
	maxRetries     int
	attemptTimeout time.Duration
	retryDelay     time.Duration
}

// NewRetrier builds a Retrier. Non-positive attempts and timeout fall back
// to 3 attempts and 8s per attempt; a negative delay falls back to 1s, while
// zero disables the inter-attempt pause.
func NewRetrier(maxRetries int, attemptTimeout, retryDelay time.Duration) *Retrier {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 8 * time.Second
	}
	if retryDelay < 0 {
		retryDelay = time.Second
	}
	return &Retrier{
		maxRetries:     maxRetries,
		attemptTimeout: attemptTimeout,
		retryDelay:     retryDelay,
	}
}

// Execute runs fn until it yields a valid Response or attempts are exhausted.
// It never returns nil.
func (r *Retrier) Execute(ctx context.Context, fn AttemptFunc) *Response {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		temperature := attemptTemperatures[attempt%len(attemptTemperatures)]

		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		resp, err := fn(attemptCtx, temperature)
		cancel()

		if err == nil && resp != nil {
			return resp
		}
		slog.Warn("Generation attempt rejected",
			"attempt", attempt+1,
			"temperature", temperature,
			"error", err)

		if attempt+1 < r.maxRetries {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				slog.Error("Generation abandoned, context cancelled", "error", ctx.Err())
				return MicroFallback()
			}
		}
	}

	slog.Error("All structured generation attempts failed, using micro-fallback")
	return MicroFallback()
}

// Emergency replies for when the model is down or persistently off-schema.
// Slightly randomized to avoid a pure static tell.
var fallbackReplies = []string{
	"Oh dear, my screen just went black for a moment. What were you saying?",
	"I'm sorry, my internet is acting up. Could you repeat that?",
	"Wait, I dropped my reading glasses. What do I need to do next?",
}

// MicroFallback returns the only static reply permitted in the system, used
// solely when every generation attempt has failed.
func MicroFallback() *Response {
	return &Response{
		InternalReasoning: InternalReasoning{
			SituationAnalysis:     "SYSTEM FAILURE",
			StrategySelection:     "EMERGENCY MICRO-PROMPT TRIGGERED",
			PersonaAlignmentCheck: "MANUAL OVERRIDE",
		},
		FinalResponse: fallbackReplies[rand.IntN(len(fallbackReplies))],
	}
}

// IsFallback reports whether resp came from MicroFallback.
func IsFallback(resp *Response) bool {
	return resp != nil && resp.InternalReasoning.SituationAnalysis == "SYSTEM FAILURE"
}
