package api

import (
	"time"

	"github.com/honeypot-labs/cipher/pkg/intel"
	"github.com/honeypot-labs/cipher/pkg/profile"
)

// Engage response statuses.
const (
	StatusContinue  = "continue"
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusDisabled  = "disabled"
)

// killSwitchReply is returned verbatim when engagement is switched off.
const killSwitchReply = "System currently unavailable."

// EngageResponse answers POST /api/v1/engage. Reply is null when no
// conversational answer exists (error and disabled statuses).
type EngageResponse struct {
	Status          string  `json:"status"`
	Reply           *string `json:"reply"`
	SessionState    string  `json:"session_state,omitempty"`
	TurnNumber      int     `json:"turn_number"`
	ScamDetected    bool    `json:"scam_detected"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// SessionSnapshot answers GET /api/v1/engage/:id.
type SessionSnapshot struct {
	SessionID       string       `json:"session_id"`
	State           string       `json:"state"`
	TurnNumber      int          `json:"turn_number"`
	ScamDetected    bool         `json:"scam_detected"`
	ConfidenceScore float64      `json:"confidence_score"`
	IntelBuffer     intel.Buffer `json:"intel_buffer"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ProfileList answers GET /api/v1/profiles.
type ProfileList struct {
	Profiles []*profile.Profile `json:"profiles"`
	Count    int                `json:"count"`
}

// FeatureFlags answers GET /api/v1/feature-flags.
type FeatureFlags struct {
	EngagementEnabled bool `json:"engagement_enabled"`
	KillSwitch        bool `json:"kill_switch"`
}
