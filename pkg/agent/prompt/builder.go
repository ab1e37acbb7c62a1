// Package prompt assembles the ordered message sequence sent to the model:
// one system directive (persona block + output contract + live situation
// metrics) followed by the conversation history.
package prompt

import (
	"fmt"
	"strings"

	"github.com/honeypot-labs/cipher/pkg/llm"
)

// Context carries the per-turn state injected into the system directive.
type Context struct {
	PersonaBlock    string
	History         []llm.Message
	TurnNumber      int
	MaxMessages     int
	MissingEntities []string
	Confidence      float64
	RiskLevel       string
}

const outputContract = `=== STRICT OUTPUT REQUIREMENT ===
You must respond in valid JSON format matching this schema exactly:
{
  "internal_reasoning": {
    "situation_analysis": "brief analysis of attacker tactics",
    "strategy_selection": "how you will handle this turn",
    "persona_alignment_check": "ensure your reaction fits your assigned demographic and literacy limits"
  },
  "final_response": "your actual conversational reply to the scammer"
}

RULES FOR FINAL_RESPONSE:
1. Under NO circumstances should you provide a static, generic tech-support reply.
2. Under NO circumstances should you break character or reveal you are an AI.
3. Keep the payload strictly conversational based on the persona rules.
4. If the conversation has clearly run its course (the other party gives up, says goodbye, or stops making demands), include the literal marker [DISENGAGE] inside strategy_selection.`

// Confidence bands for the tactical directive.
const (
	scamBand       = 0.8
	suspiciousBand = 0.5
)

// Build assembles the complete prompt. History is injected as-is; callers
// compact it first (see Compact) when the conversation is long.
func Build(pc Context) []llm.Message {
	system := pc.PersonaBlock + "\n\n" + outputContract + "\n\n" + situationBlock(pc)

	messages := make([]llm.Message, 0, len(pc.History)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, pc.History...)
	return messages
}

// situationBlock injects real-time detection state so the agent adapts
// tactics turn by turn.
func situationBlock(pc Context) string {
	missing := "none"
	if len(pc.MissingEntities) > 0 {
		missing = strings.Join(pc.MissingEntities, ", ")
	}

	return fmt.Sprintf(`=== DYNAMIC SITUATION METRICS ===
- Current Scam Probability: %.1f%% (%s risk)
- Missing Target Intelligence: %s
- Turn Depth: %d/%d

=== TACTICAL DIRECTIVE ===
%s`,
		pc.Confidence*100, pc.RiskLevel, missing, pc.TurnNumber, pc.MaxMessages,
		tacticalDirective(pc))
}

func tacticalDirective(pc Context) string {
	var directive string
	switch {
	case pc.Confidence > scamBand:
		directive = "SCAM DETECTED. Feign maximum confusion. Make them explain step-by-step how to pay them or send money. Provide NO valid details yet."
	case pc.Confidence > suspiciousBand:
		directive = "SUSPICIOUS. Ask clarifying, naive questions about why they contacted you."
	default:
		directive = "BENIGN. Respond naturally and politely but keep it brief."
	}

	if pc.TurnNumber > pc.MaxMessages-3 {
		directive += " CONVERSATION ENDING SOON. Stall, pretend you are about to comply, and make a final excuse (e.g., 'My son just arrived, I have to go')."
	}
	return directive
}
