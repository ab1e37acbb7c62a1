// Package detection scores incoming messages for scam likelihood using a
// three-layer ensemble: deterministic heuristics, behavioral lexicon
// analysis, and semantic template matching. Scores carry session memory so
// a flagged conversation stays flagged across benign noise.
package detection

// RiskLevel is the operator-facing tier for a confidence score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// DetectionThreshold is the final confidence at which a message counts as
// a scam.
const DetectionThreshold = 0.50

// Signal is the verdict for one message.
type Signal struct {
	ScamDetected    bool      `json:"scam_detected"`
	ConfidenceScore float64   `json:"confidence_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Explanations    []string  `json:"explanations"`
	// Categories names the scam families matched by the heuristic layer,
	// deduplicated. Feeds sender profiling.
	Categories []string `json:"scam_categories,omitempty"`
}

// LayerResult is the raw output of a single detection layer before
// ensemble weighting.
type LayerResult struct {
	Score        float64
	Explanations []string
	Categories   []string
}

// MapRiskLevel converts a confidence score into its risk tier.
func MapRiskLevel(confidence float64) RiskLevel {
	switch {
	case confidence >= 0.85:
		return RiskCritical
	case confidence >= 0.65:
		return RiskHigh
	case confidence >= 0.45:
		return RiskMedium
	default:
		return RiskLow
	}
}
