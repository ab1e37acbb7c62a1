package api

import "github.com/honeypot-labs/cipher/pkg/engagement"

// EngageRequest is the turn envelope posted by the message gateway. Field
// names follow the gateway's wire contract, hence the camelCase keys.
type EngageRequest struct {
	SessionID           string               `json:"sessionId"`
	Message             engagement.Message   `json:"message"`
	ConversationHistory []engagement.Message `json:"conversationHistory"`
	Metadata            *Metadata            `json:"metadata"`
}

// Metadata carries optional channel hints from the gateway. Informational
// only; logged but never acted on.
type Metadata struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}
