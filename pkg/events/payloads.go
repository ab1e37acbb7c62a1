package events

// ScamDetectedPayload is published when the structural detector flags an
// inbound message as a likely scam.
type ScamDetectedPayload struct {
	SessionID      string   `json:"session_id"`
	Sender         string   `json:"sender"`
	Confidence     float64  `json:"confidence_score"`
	Text           string   `json:"text"`
	RiskLevel      string   `json:"risk_level"`
	ScamCategories []string `json:"scam_categories,omitempty"`
	Timestamp      string   `json:"timestamp"`
}

// EngagementTurnPayload is published after every completed agent turn.
type EngagementTurnPayload struct {
	SessionID   string              `json:"session_id"`
	Sender      string              `json:"sender"`
	TurnNumber  int                 `json:"turn_number"`
	Reply       string              `json:"reply"`
	IntelBuffer map[string][]string `json:"intel_buffer"`
	Timestamp   string              `json:"timestamp"`
}

// EngagementCompletedPayload is published exactly once when a session
// reaches a terminal state.
type EngagementCompletedPayload struct {
	SessionID       string  `json:"session_id"`
	Sender          string  `json:"sender"`
	ScamDetected    bool    `json:"scam_detected"`
	ConfidenceScore float64 `json:"confidence_score"`
	TotalTurns      int     `json:"total_turns"`
	Timestamp       string  `json:"timestamp"`
}
