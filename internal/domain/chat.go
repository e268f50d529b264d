package domain

import "encoding/json"

// Roles accepted in prompt messages. Anything else coming from a caller
// is coerced to RoleUser before the prompt is assembled.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single entry of caller-supplied conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptMessage is one message of the assembled prompt sent upstream.
// The assembled sequence always starts with exactly one system message
// and ends with exactly one user message.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModerationVerdict is the per-request result of the content-safety check.
// Raw keeps the classifier's response for server-side logging; it is never
// stored or returned to the caller.
type ModerationVerdict struct {
	Flagged bool
	Raw     json.RawMessage
}
