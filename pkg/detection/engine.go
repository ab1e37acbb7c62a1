package detection

import (
	"fmt"
	"math"
)

// Ensemble weights. Heuristics dominate, behavioral NLP corroborates, and
// the semantic tier acts as booster/tie-breaker.
const (
	weightHeuristics = 0.55
	weightBehavioral = 0.45
	weightSemantic   = 0.25
)

// DefaultAlpha controls how much of the previous session score bleeds into
// the current turn.
const DefaultAlpha = 0.6

// Engine aggregates the three layers into a Signal. Immutable after
// construction; safe for concurrent use.
type Engine struct {
	semantic SemanticScorer
	alpha    float64
}

// NewEngine builds an engine with the given semantic tier. A nil scorer
// falls back to the fixed phrase-cluster stub.
func NewEngine(semantic SemanticScorer) *Engine {
	if semantic == nil {
		semantic = NewPhraseClusterScorer()
	}
	return &Engine{semantic: semantic, alpha: DefaultAlpha}
}

// Detect scores one message. previousScore carries the session's scam
// score from earlier turns; the decay formula keeps a flagged session
// flagged across benign messages:
//
//	final = max(current, alpha*previous + (1-alpha)*current)
func (e *Engine) Detect(text string, previousScore float64) Signal {
	l1 := runHeuristics(text)
	l2 := runBehavioral(text)
	l3 := e.semantic.Score(text)

	current := weightHeuristics*l1.Score + weightBehavioral*l2.Score + weightSemantic*l3.Score

	explanations := make([]string, 0, len(l1.Explanations)+len(l2.Explanations)+len(l3.Explanations)+1)
	explanations = append(explanations, l1.Explanations...)
	explanations = append(explanations, l2.Explanations...)
	explanations = append(explanations, l3.Explanations...)

	historical := e.alpha*previousScore + (1-e.alpha)*current
	final := math.Max(current, historical)

	confidence := math.Min(1.0, round2(final))

	if confidence > current && confidence > 0.45 {
		explanations = append(explanations,
			fmt.Sprintf("Context: Session risk elevated from semantic history (%.2f)", confidence))
	}

	return Signal{
		ScamDetected:    confidence >= DetectionThreshold,
		ConfidenceScore: confidence,
		RiskLevel:       MapRiskLevel(confidence),
		Explanations:    explanations,
		Categories:      l1.Categories,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
