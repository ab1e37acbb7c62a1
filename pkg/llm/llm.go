// Package llm defines the chat-completion contract used by the persona agent
// and provides an Ollama-backed implementation.
package llm

import "context"

// Chat roles understood by the providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces one completion for an ordered list of chat messages.
// Implementations must honor ctx cancellation and deadlines; the retry layer
// drives per-attempt timeouts through ctx.
type Generator interface {
	Generate(ctx context.Context, messages []Message, temperature float64) (string, error)
}
