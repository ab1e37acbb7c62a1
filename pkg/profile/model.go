// Package profile maintains long-lived dossiers on scam senders, folded
// together from detection and engagement events across sessions. Profiles
// outlive sessions: a sender who returns weeks later picks up the same
// record.
package profile

import (
	"time"

	"github.com/honeypot-labs/cipher/pkg/intel"
)

// StatusActive is the only status assigned automatically. Other values
// ("retired", "blocked") are reserved for operator tooling.
const StatusActive = "active"

// AgentSender is the sender label for the honeypot's own messages.
// Events attributed to it never create or touch a profile.
const AgentSender = "agent"

// Risk recomputation weights applied on every engagement turn.
const (
	entityRiskWeight = 0.05
	turnRiskWeight   = 0.01
)

// Profile is the aggregate record for one sender identity (phone number,
// UPI handle, or channel user ID).
type Profile struct {
	Sender            string       `json:"sender"`
	FirstSeen         time.Time    `json:"first_seen"`
	LastSeen          time.Time    `json:"last_seen"`
	TotalEngagements  int          `json:"total_engagements"`
	TotalTurns        int          `json:"total_turns"`
	RiskScore         float64      `json:"risk_score"`
	ScamCategories    []string     `json:"scam_categories"`
	TacticsObserved   []string     `json:"tactics_observed"`
	ExtractedEntities intel.Buffer `json:"extracted_entities"`
	Status            string       `json:"status"`
}

// New returns a fresh profile for sender with zeroed counters.
func New(sender string, now time.Time) *Profile {
	return &Profile{
		Sender:            sender,
		FirstSeen:         now,
		LastSeen:          now,
		ScamCategories:    []string{},
		TacticsObserved:   []string{},
		ExtractedEntities: intel.NewBuffer(),
		Status:            StatusActive,
	}
}

// Clone returns a deep copy so stores can hand out profiles without
// exposing shared slices.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.ScamCategories = append([]string(nil), p.ScamCategories...)
	cp.TacticsObserved = append([]string(nil), p.TacticsObserved...)
	cp.ExtractedEntities = p.ExtractedEntities.Clone()
	return &cp
}

// AddCategories unions categories into ScamCategories, preserving
// first-seen order.
func (p *Profile) AddCategories(categories ...string) {
	p.ScamCategories = appendUnique(p.ScamCategories, categories)
}

// AddTactics unions tactics into TacticsObserved, preserving first-seen
// order.
func (p *Profile) AddTactics(tactics ...string) {
	p.TacticsObserved = appendUnique(p.TacticsObserved, tactics)
}

// RecomputeRisk overwrites RiskScore from the current entity and turn
// counts: 0.05 per extracted entity plus 0.01 per turn, capped at 1.0.
// Deliberately an overwrite, not a max: the score tracks how productive
// the sender currently is, while scam detections raise it separately.
func (p *Profile) RecomputeRisk() {
	risk := entityRiskWeight*float64(p.ExtractedEntities.Total()) + turnRiskWeight*float64(p.TotalTurns)
	if risk > 1.0 {
		risk = 1.0
	}
	p.RiskScore = risk
}

func appendUnique(existing []string, values []string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		dup := false
		for _, have := range existing {
			if have == v {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, v)
		}
	}
	return existing
}
