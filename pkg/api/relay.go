package api

import "encoding/json"

// RelayRequest is the body accepted by the serverless chat relay.
// Messages is forwarded verbatim when present; otherwise Prompt becomes a single user message.
type RelayRequest struct {
	Messages json.RawMessage `json:"messages,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
