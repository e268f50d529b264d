package port

import (
	"context"

	"github.com/arturoeanton/go-rag-relay/internal/domain"
)

// CompletionParams are the sampling parameters forwarded with every
// completion request. Zero values are meaningful (a temperature of 0 is
// valid), so callers pass the fully resolved set from config.
type CompletionParams struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// StreamEvent is one frame of a streaming completion. Exactly one of the
// terminal fields (Done, Err) is set on the last event of a stream; every
// earlier event carries Data.
type StreamEvent struct {
	Data string
	Done bool
	Err  error
}

// AIProvider abstracts the upstream LLM backend for completions,
// embeddings, and content moderation. Implementations can target any
// OpenAI-compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the completion model in use.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Moderate classifies the text for policy violations.
	Moderate(ctx context.Context, text string) (domain.ModerationVerdict, error)

	// Complete sends the assembled prompt and returns the full reply text.
	Complete(ctx context.Context, messages []domain.PromptMessage, params CompletionParams) (string, error)

	// CompleteStream sends the assembled prompt with streaming enabled and
	// relays upstream frames in arrival order. The stream ends with exactly
	// one Done or Err event and the channel is then closed.
	CompleteStream(ctx context.Context, messages []domain.PromptMessage, params CompletionParams) (<-chan StreamEvent, error)
}
