// Package reflection validates structured model output and drives the
// temperature-escalated retry loop around generation attempts.
package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// InternalReasoning is the hidden cognitive block the model must emit before
// its conversational reply. It is logged but never shown to the scammer.
type InternalReasoning struct {
	SituationAnalysis     string `json:"situation_analysis"`
	StrategySelection     string `json:"strategy_selection"`
	PersonaAlignmentCheck string `json:"persona_alignment_check"`
}

// Response is the strict JSON envelope required from the model.
type Response struct {
	InternalReasoning InternalReasoning `json:"internal_reasoning"`
	FinalResponse     string            `json:"final_response"`
}

// DisengageMarker in strategy_selection signals the persona has decided the
// conversation is over; the controller completes the session early.
const DisengageMarker = "[DISENGAGE]"

// Disengage reports whether the model asked to wind the session down.
func (r *Response) Disengage() bool {
	return strings.Contains(r.InternalReasoning.StrategySelection, DisengageMarker)
}

// Reasoning fields shorter than this are treated as template hallucinations.
const minReasoningChars = 10

// Stock phrases that betray a generic bot fallback instead of an in-persona
// reply. Matched against the lowercased final response.
var genericTemplates = []string{
	"as an ai",
	"i cannot assist",
	"i do not understand",
	"sorry, i am",
	"i am an ai",
}

// Evaluate strips optional markdown fences, parses the JSON envelope and
// rejects shallow reasoning or generic fallback replies.
func Evaluate(raw string) (*Response, error) {
	cleaned := stripFences(raw)

	var resp Response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON envelope: %w", err)
	}

	switch {
	case strings.TrimSpace(resp.InternalReasoning.SituationAnalysis) == "":
		return nil, errors.New("missing situation_analysis")
	case strings.TrimSpace(resp.InternalReasoning.StrategySelection) == "":
		return nil, errors.New("missing strategy_selection")
	case strings.TrimSpace(resp.InternalReasoning.PersonaAlignmentCheck) == "":
		return nil, errors.New("missing persona_alignment_check")
	case strings.TrimSpace(resp.FinalResponse) == "":
		return nil, errors.New("missing final_response")
	}

	if len(resp.InternalReasoning.SituationAnalysis) < minReasoningChars ||
		len(resp.InternalReasoning.StrategySelection) < minReasoningChars {
		return nil, errors.New("reasoning block too shallow or generic")
	}

	final := strings.ToLower(resp.FinalResponse)
	for _, template := range genericTemplates {
		if strings.Contains(final, template) {
			return nil, fmt.Errorf("final response matches generic bot template %q", template)
		}
	}

	return &resp, nil
}

// stripFences removes a wrapping markdown code block, with or without the
// json language tag.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
