package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arturoeanton/go-rag-relay/internal/domain"
	"github.com/arturoeanton/go-rag-relay/internal/port"
)

// The upstream speaks the OpenAI wire protocol: chat completions,
// embeddings, and moderations under one base URL with bearer auth.
const (
	completionsPath = "/chat/completions"
	embeddingsPath  = "/embeddings"
	moderationsPath = "/moderations"

	// doneSentinel terminates an upstream event stream.
	doneSentinel = "[DONE]"

	// dataPrefix marks an event-data line in the upstream stream.
	dataPrefix = "data: "
)

// Config holds the connection settings for an OpenAI-compatible API.
type Config struct {
	BaseURL         string // e.g. https://api.openai.com/v1
	APIKey          string
	ChatModel       string // e.g. gpt-4o-mini
	EmbedModel      string // e.g. text-embedding-3-small
	ModerationModel string // e.g. omni-moderation-latest
}

// OpenAIProvider implements port.AIProvider against an OpenAI-compatible
// REST API.
type OpenAIProvider struct {
	cfg        Config
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider for the given endpoint config.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the completion model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.cfg.ChatModel
}

// Embed generates a vector embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": p.cfg.EmbedModel,
		"input": text,
	}

	body, err := p.post(ctx, embeddingsPath, payload)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("embed decode: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embed: %w: no embedding in response", port.ErrMalformedResponse)
	}

	return resp.Data[0].Embedding, nil
}

// Moderate classifies the text against the upstream content-safety model.
func (p *OpenAIProvider) Moderate(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	payload := map[string]interface{}{
		"model": p.cfg.ModerationModel,
		"input": text,
	}

	body, err := p.post(ctx, moderationsPath, payload)
	if err != nil {
		return domain.ModerationVerdict{}, fmt.Errorf("moderate: %w", err)
	}

	var resp struct {
		Results []struct {
			Flagged bool `json:"flagged"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ModerationVerdict{}, fmt.Errorf("moderate decode: %w", err)
	}

	if len(resp.Results) == 0 {
		return domain.ModerationVerdict{}, fmt.Errorf("moderate: %w: empty results", port.ErrMalformedResponse)
	}

	return domain.ModerationVerdict{
		Flagged: resp.Results[0].Flagged,
		Raw:     json.RawMessage(body),
	}, nil
}

// Complete sends the assembled prompt and waits for the full reply.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []domain.PromptMessage, params port.CompletionParams) (string, error) {
	if p.cfg.APIKey == "" {
		return "", port.ErrMissingAPIKey
	}

	body, err := p.post(ctx, completionsPath, p.completionPayload(messages, params, false))
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("complete decode: %w: %v", port.ErrMalformedResponse, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("complete: %w: no message content", port.ErrMalformedResponse)
	}

	return strings.TrimSpace(*resp.Choices[0].Message.Content), nil
}

// CompleteStream sends the assembled prompt with streaming enabled and
// re-emits upstream event-data lines in arrival order. Non-conforming
// non-empty lines are forwarded as data too so no bytes are silently
// dropped.
func (p *OpenAIProvider) CompleteStream(ctx context.Context, messages []domain.PromptMessage, params port.CompletionParams) (<-chan port.StreamEvent, error) {
	if p.cfg.APIKey == "" {
		return nil, port.ErrMissingAPIKey
	}

	payloadBytes, err := json.Marshal(p.completionPayload(messages, params, true))
	if err != nil {
		return nil, fmt.Errorf("stream: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+completionsPath, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("stream: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("stream: %w: status %d: %s", port.ErrUpstream, resp.StatusCode, string(body))
	}

	ch := make(chan port.StreamEvent, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}

			payload := line
			if strings.HasPrefix(line, dataPrefix) {
				payload = strings.TrimPrefix(line, dataPrefix)
			}
			if payload == doneSentinel {
				ch <- port.StreamEvent{Done: true}
				return
			}

			select {
			case ch <- port.StreamEvent{Data: payload}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- port.StreamEvent{Err: fmt.Errorf("stream read: %w", err)}
			return
		}

		// Upstream closed cleanly without a sentinel.
		ch <- port.StreamEvent{Done: true}
	}()

	return ch, nil
}

func (p *OpenAIProvider) completionPayload(messages []domain.PromptMessage, params port.CompletionParams, stream bool) map[string]interface{} {
	return map[string]interface{}{
		"model":             p.cfg.ChatModel,
		"messages":          messages,
		"temperature":       params.Temperature,
		"max_tokens":        params.MaxTokens,
		"top_p":             params.TopP,
		"frequency_penalty": params.FrequencyPenalty,
		"presence_penalty":  params.PresencePenalty,
		"stream":            stream,
	}
}

// post is a helper for buffered POST requests to the upstream API.
func (p *OpenAIProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", port.ErrUpstream, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
