package detection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBenignMessage(t *testing.T) {
	engine := NewEngine(nil)

	signal := engine.Detect("Hey, how are you?", 0)

	assert.False(t, signal.ScamDetected)
	assert.LessOrEqual(t, signal.ConfidenceScore, 0.1)
	assert.Equal(t, RiskLow, signal.RiskLevel)
	assert.Empty(t, signal.Explanations)
}

func TestDetectObviousScam(t *testing.T) {
	engine := NewEngine(nil)

	signal := engine.Detect("URGENT! Your account is blocked. Share OTP and pay to scammer@ybl immediately", 0)

	assert.True(t, signal.ScamDetected)
	assert.GreaterOrEqual(t, signal.ConfidenceScore, 0.5)
	assert.Equal(t, RiskHigh, signal.RiskLevel)

	// Three L1 rules plus coercion and payment routing from L2.
	assert.Contains(t, signal.Explanations, "L1: UPI ID blocklist entity found")
	assert.Contains(t, signal.Explanations, "L1: PII/OTP extraction attempt")
	assert.Contains(t, signal.Explanations, "L1: Account suspension threat")
	assert.Contains(t, signal.Explanations, "L2: Behavioral analysis indicates account coercion")
	assert.Contains(t, signal.Explanations, "L2: Payment routing intent recognized")
}

// A benign follow-up in a flagged session stays flagged: the decay formula
// bleeds 0.6 of the previous score forward.
func TestDetectSessionMemoryDecay(t *testing.T) {
	engine := NewEngine(nil)

	signal := engine.Detect("Hello there", 0.90)

	assert.InDelta(t, 0.54, signal.ConfidenceScore, 1e-9)
	assert.True(t, signal.ScamDetected)
	assert.Equal(t, RiskMedium, signal.RiskLevel)
	require.NotEmpty(t, signal.Explanations)
	assert.Contains(t, signal.Explanations[len(signal.Explanations)-1],
		"Session risk elevated from semantic history")
}

func TestDetectDecayBelowThresholdStillElevated(t *testing.T) {
	engine := NewEngine(nil)

	// 0.6 * 0.8 = 0.48: under the scam threshold but above the medium band.
	signal := engine.Detect("Hello there", 0.80)

	assert.InDelta(t, 0.48, signal.ConfidenceScore, 1e-9)
	assert.False(t, signal.ScamDetected)
	assert.Equal(t, RiskMedium, signal.RiskLevel)
	assert.Contains(t, signal.Explanations[len(signal.Explanations)-1],
		"Session risk elevated from semantic history")
}

func TestDetectNoElevationNoteAtLowScores(t *testing.T) {
	engine := NewEngine(nil)

	// 0.6 * 0.3 = 0.18: elevated over current but below the 0.45 note gate.
	signal := engine.Detect("Hello there", 0.30)

	assert.InDelta(t, 0.18, signal.ConfidenceScore, 1e-9)
	assert.Empty(t, signal.Explanations)
}

func TestDetectMonotoneMemory(t *testing.T) {
	engine := NewEngine(nil)

	texts := []string{
		"Hey, how are you?",
		"URGENT! Your account is blocked. Share OTP and pay to scammer@ybl immediately",
		"ok",
	}
	previous := []float64{0, 0.3, 0.5, 0.7, 0.9, 1.0}

	for _, text := range texts {
		for _, prev := range previous {
			t.Run(fmt.Sprintf("%.1f", prev), func(t *testing.T) {
				signal := engine.Detect(text, prev)
				// Rounding to two decimals may shave at most 0.005.
				assert.GreaterOrEqual(t, signal.ConfidenceScore, DefaultAlpha*prev-0.005,
					"text=%q prev=%v", text, prev)
			})
		}
	}
}

func TestDetectConfidenceCappedForAdversarialInput(t *testing.T) {
	engine := NewEngine(nil)

	text := "URGENT! arrest warrant issued. Your account is blocked. Share OTP, PIN, CVV and password now within minutes. " +
		"Pay transfer deposit to scam@ybl via upi://pay?x or http://phish.xyz/login or https://bit.ly/x. " +
		"SBI bank income tax police. Your KYC will expire. You won the lottery prize! earn cash from home, daily income. " +
		"Help me out with a gift card."

	signal := engine.Detect(text, 1.0)

	assert.Equal(t, 1.0, signal.ConfidenceScore)
	assert.True(t, signal.ScamDetected)
	assert.Equal(t, RiskCritical, signal.RiskLevel)
}

func TestDetectSemanticBoosterAloneStaysLow(t *testing.T) {
	engine := NewEngine(nil)

	// L3 is a tie-breaker: 0.25 * 0.8 alone cannot flag a message.
	signal := engine.Detect("Could you help me out? I need a gift card for my boss", 0)

	assert.InDelta(t, 0.2, signal.ConfidenceScore, 1e-9)
	assert.False(t, signal.ScamDetected)
	assert.Contains(t, signal.Explanations,
		"L3: Semantic map closely aligns with 'Gift Card Request' phishing template")
}

func TestDetectSemanticCorroboratesOtherLayers(t *testing.T) {
	engine := NewEngine(nil)

	signal := engine.Detect("Your customs package is held, pay the clearance fee", 0)

	assert.True(t, signal.ScamDetected)
	assert.Contains(t, signal.Explanations, "L1: Authority/Government impersonation")
	assert.Contains(t, signal.Explanations, "L2: Payment routing intent recognized")
	assert.Contains(t, signal.Explanations, "L3: Matches 'Customs Delay / Advance Fee' semantic cluster")
}

func TestMapRiskLevelBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		want       RiskLevel
	}{
		{0.0, RiskLow},
		{0.44, RiskLow},
		{0.45, RiskMedium},
		{0.64, RiskMedium},
		{0.65, RiskHigh},
		{0.84, RiskHigh},
		{0.85, RiskCritical},
		{1.0, RiskCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapRiskLevel(tt.confidence), "confidence %v", tt.confidence)
	}
}

type fixedScorer struct {
	result LayerResult
}

func (f fixedScorer) Score(string) LayerResult { return f.result }

func TestEngineUsesInjectedSemanticScorer(t *testing.T) {
	engine := NewEngine(fixedScorer{LayerResult{Score: 1.0, Explanations: []string{"L3: custom model verdict"}}})

	signal := engine.Detect("anything at all", 0)

	// 0.25 * 1.0 from the injected tier only.
	assert.InDelta(t, 0.25, signal.ConfidenceScore, 1e-9)
	assert.Contains(t, signal.Explanations, "L3: custom model verdict")
}
