package prompt

import (
	"fmt"

	"github.com/honeypot-labs/cipher/pkg/llm"
)

const (
	// Histories longer than this are compacted before prompting.
	maxTurnsRetained = 10

	// Trailing messages kept verbatim after compaction.
	keepRecent = 8
)

// Compact bounds the conversation window sent to the model. Histories within
// the retention cap pass through unchanged; longer ones keep the trailing
// messages behind a synthetic system note recording how many were dropped,
// so the model treats the dialogue as established rather than fresh.
func Compact(history []llm.Message) []llm.Message {
	if len(history) <= maxTurnsRetained {
		return history
	}

	dropped := len(history) - keepRecent
	note := llm.Message{
		Role: llm.RoleSystem,
		Content: fmt.Sprintf(
			"[SYSTEM NOTE: Conversation depth exceeded the retention window; %d earlier messages were truncated for memory. Assume the user is continuing the established dialogue.]",
			dropped),
	}

	out := make([]llm.Message, 0, keepRecent+1)
	out = append(out, note)
	out = append(out, history[len(history)-keepRecent:]...)
	return out
}
