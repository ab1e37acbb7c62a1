package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/honeypot-labs/cipher/pkg/events"
	"github.com/honeypot-labs/cipher/pkg/intel"
)

// DefaultEngagementGap separates distinct engagements by the same sender:
// activity after this much silence counts as a new engagement rather than
// a continuation.
const DefaultEngagementGap = time.Hour

// Aggregator folds detection and engagement events into sender profiles.
// It is a plain bus subscriber; event ordering between types is not
// guaranteed, so both handlers tolerate arriving first for a new sender.
type Aggregator struct {
	store Store
	gap   time.Duration
	now   func() time.Time
}

// NewAggregator builds an aggregator over store. A non-positive gap falls
// back to DefaultEngagementGap.
func NewAggregator(store Store, gap time.Duration) *Aggregator {
	if gap <= 0 {
		gap = DefaultEngagementGap
	}
	return &Aggregator{store: store, gap: gap, now: time.Now}
}

// Register subscribes the aggregator's handlers on the bus. Call before
// Bus.Start.
func (a *Aggregator) Register(bus events.Bus) {
	bus.Subscribe(events.EventScamDetected, a.onScamDetected)
	bus.Subscribe(events.EventEngagementTurn, a.onEngagementTurn)
}

// onScamDetected upserts the sender and raises the profile risk to the
// detection confidence. A detection after a long quiet period counts as a
// fresh engagement.
func (a *Aggregator) onScamDetected(ctx context.Context, evt events.Event) {
	var payload events.ScamDetectedPayload
	if err := json.Unmarshal(evt.Raw, &payload); err != nil {
		slog.Error("Dropping malformed scam.detected event", "error", err)
		return
	}
	if skipSender(payload.Sender) {
		return
	}

	now := a.now().UTC()
	_, err := a.store.Update(ctx, payload.Sender, func(p *Profile, created bool) {
		if created {
			p.TotalEngagements = 1
			p.RiskScore = payload.Confidence
		} else {
			if now.Sub(p.LastSeen) > a.gap {
				p.TotalEngagements++
			}
			if payload.Confidence > p.RiskScore {
				p.RiskScore = payload.Confidence
			}
		}
		p.AddCategories(payload.ScamCategories...)
		p.LastSeen = now
	})
	if err != nil {
		slog.Error("Profile update failed",
			"event_type", evt.Type,
			"sender", payload.Sender,
			"error", err)
	}
}

// onEngagementTurn counts the turn, merges the intelligence snapshot, and
// recomputes the productivity-based risk score.
func (a *Aggregator) onEngagementTurn(ctx context.Context, evt events.Event) {
	var payload events.EngagementTurnPayload
	if err := json.Unmarshal(evt.Raw, &payload); err != nil {
		slog.Error("Dropping malformed engagement.turn event", "error", err)
		return
	}
	if skipSender(payload.Sender) {
		return
	}

	now := a.now().UTC()
	snapshot := intel.Buffer(payload.IntelBuffer)
	_, err := a.store.Update(ctx, payload.Sender, func(p *Profile, created bool) {
		if created {
			p.TotalEngagements = 1
		}
		p.TotalTurns++
		if snapshot != nil {
			p.ExtractedEntities.Merge(snapshot)
			p.AddTactics(intel.Tactics(snapshot[intel.CategorySuspiciousKeywords])...)
		}
		p.RecomputeRisk()
		p.LastSeen = now
	})
	if err != nil {
		slog.Error("Profile update failed",
			"event_type", evt.Type,
			"sender", payload.Sender,
			"error", err)
	}
}

// skipSender filters events that must never create a profile: the
// honeypot's own replies and events with no sender identity.
func skipSender(sender string) bool {
	return sender == "" || strings.EqualFold(sender, AgentSender)
}
