package detection

import "strings"

// Token-weight lexicons approximating TF-IDF coefficients for scam intent.
var (
	coercionLexicon = map[string]float64{
		"immediate": 0.2, "action": 0.2, "suspended": 0.3,
		"blocked": 0.3, "locked": 0.3, "disabled": 0.3,
	}
	legalThreatLexicon = map[string]float64{
		"arrest": 0.4, "warrant": 0.4, "legal": 0.3, "court": 0.3,
		"lawsuit": 0.4, "prosecution": 0.4, "penalty": 0.3, "fine": 0.3,
		"charge": 0.15,
	}
	urgencyLexicon = map[string]float64{
		"urgently": 0.25, "now": 0.15, "within": 0.2,
		"hours": 0.1, "minutes": 0.2,
	}
	financialVerbLexicon = map[string]float64{
		"transfer": 0.3, "send": 0.2, "pay": 0.3, "deposit": 0.25,
	}
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// tokenize lowercases, strips ASCII punctuation, and splits on whitespace,
// mirroring the vectorizer preprocessing the lexicon weights were fit on.
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if !strings.ContainsRune(asciiPunctuation, r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func lexiconScore(tokens []string, lexicon map[string]float64) float64 {
	score := 0.0
	for _, t := range tokens {
		score += lexicon[t]
	}
	return score
}

// runBehavioral evaluates psychological and coercive language features.
// Legal threats dominate plain coercion; urgency and payment routing stack
// on top.
func runBehavioral(text string) LayerResult {
	tokens := tokenize(text)

	coercion := lexiconScore(tokens, coercionLexicon)
	legal := lexiconScore(tokens, legalThreatLexicon)
	urgency := lexiconScore(tokens, urgencyLexicon)
	financial := lexiconScore(tokens, financialVerbLexicon)

	var result LayerResult

	if legal >= 0.3 {
		result.Score += 0.4
		result.Explanations = append(result.Explanations,
			"L2: High statistical probability of legal/threat coercion")
	} else if coercion >= 0.3 {
		result.Score += 0.3
		result.Explanations = append(result.Explanations,
			"L2: Behavioral analysis indicates account coercion")
	}

	if urgency >= 0.2 {
		result.Score += 0.2
		result.Explanations = append(result.Explanations,
			"L2: Temporal urgency markers detected")
	}

	if financial >= 0.25 {
		result.Score += 0.3
		result.Explanations = append(result.Explanations,
			"L2: Payment routing intent recognized")
	}

	if result.Score > 1.0 {
		result.Score = 1.0
	}
	return result
}
