// Package callback delivers the final intelligence report for a completed
// engagement to the configured downstream consumer (reporting pipeline,
// SIEM, case management). Delivery is best-effort with bounded retries;
// the session completes whether or not the report lands.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/honeypot-labs/cipher/pkg/intel"
)

const (
	// DefaultMaxAttempts bounds delivery tries per report.
	DefaultMaxAttempts = 3

	// attemptTimeout caps a single POST including connect time.
	attemptTimeout = 10 * time.Second
)

// Report is the callback payload. CompletedAt is ISO-8601 in UTC.
type Report struct {
	SessionID       string       `json:"session_id"`
	ScamDetected    bool         `json:"scam_detected"`
	ConfidenceScore float64      `json:"confidence_score"`
	Intelligence    intel.Buffer `json:"intelligence"`
	TurnCount       int          `json:"turn_count"`
	AgentNotes      string       `json:"agent_notes"`
	CompletedAt     string       `json:"completed_at"`
}

// Dispatcher posts reports with exponential backoff between attempts.
type Dispatcher struct {
	url         string
	maxAttempts int
	baseDelay   time.Duration
	client      *http.Client
}

// NewDispatcher builds a dispatcher for url. An empty url turns Dispatch
// into a no-op. Non-positive maxAttempts falls back to DefaultMaxAttempts.
func NewDispatcher(url string, maxAttempts int, baseDelay time.Duration) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		url:         url,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		client:      &http.Client{},
	}
}

// Dispatch posts the report and returns whether it was delivered. Reports
// for sessions that were never confirmed scams are dropped: the consumer
// contract only covers confirmed engagements.
func (d *Dispatcher) Dispatch(ctx context.Context, report Report) bool {
	if d.url == "" {
		slog.Debug("Callback skipped: no URL configured", "session_id", report.SessionID)
		return false
	}
	if !report.ScamDetected {
		slog.Debug("Callback skipped: session not flagged as scam", "session_id", report.SessionID)
		return false
	}

	body, err := json.Marshal(report)
	if err != nil {
		slog.Error("Callback payload encoding failed",
			"session_id", report.SessionID,
			"error", err)
		return false
	}

	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		err := d.post(ctx, body)
		if err == nil {
			slog.Info("Callback delivered",
				"session_id", report.SessionID,
				"turn_count", report.TurnCount,
				"attempt", attempt+1)
			return true
		}
		slog.Warn("Callback attempt failed",
			"session_id", report.SessionID,
			"attempt", attempt+1,
			"error", err)

		if attempt < d.maxAttempts-1 {
			select {
			case <-time.After(time.Duration(1<<attempt) * d.baseDelay):
			case <-ctx.Done():
				slog.Warn("Callback abandoned: context cancelled",
					"session_id", report.SessionID)
				return false
			}
		}
	}

	slog.Error("Callback delivery failed after all retries; intelligence report lost",
		"session_id", report.SessionID,
		"attempts", d.maxAttempts,
		"critical", true)
	return false
}

func (d *Dispatcher) post(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting callback: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
