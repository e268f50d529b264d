package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/go-rag-relay/internal/adapter/corpus"
	"github.com/arturoeanton/go-rag-relay/internal/domain"
	"github.com/arturoeanton/go-rag-relay/internal/port"
	"github.com/arturoeanton/go-rag-relay/internal/rag"
	"github.com/arturoeanton/go-rag-relay/pkg/config"
)

// ChatRequest is one inbound chat message plus bounded history.
type ChatRequest struct {
	Message string            `json:"message"`
	History []domain.ChatTurn `json:"history"`
}

// ChatService runs the request pipeline: validate, moderate, retrieve,
// assemble, relay. Stages run strictly in that order; moderation and
// retrieval failures degrade the request instead of aborting it.
type ChatService struct {
	ai     port.AIProvider
	corpus *corpus.Store
	cfg    *config.Config
}

// NewChatService creates the pipeline service.
func NewChatService(ai port.AIProvider, store *corpus.Store, cfg *config.Config) *ChatService {
	return &ChatService{ai: ai, corpus: store, cfg: cfg}
}

// Reply runs the full pipeline and returns the complete upstream reply.
func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (string, error) {
	messages, err := s.prepare(ctx, req)
	if err != nil {
		return "", err
	}

	chatCtx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	reply, err := s.ai.Complete(chatCtx, messages, s.params())
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return reply, nil
}

// Prepare runs the INIT stages (validate, moderate, retrieve, assemble)
// without touching the completion endpoint. The streaming handler calls
// it before committing to an event-stream response: failures here can
// still change the HTTP status, failures after cannot.
func (s *ChatService) Prepare(ctx context.Context, req ChatRequest) ([]domain.PromptMessage, error) {
	return s.prepare(ctx, req)
}

// OpenStream opens the streaming completion for an already assembled
// prompt. The returned channel follows the port.StreamEvent contract:
// data frames in upstream order, then exactly one terminal Done or Err.
func (s *ChatService) OpenStream(ctx context.Context, messages []domain.PromptMessage) (<-chan port.StreamEvent, error) {
	ch, err := s.ai.CompleteStream(ctx, messages, s.params())
	if err != nil {
		return nil, fmt.Errorf("completion stream: %w", err)
	}
	return ch, nil
}

// RetrievalEnabled reports whether the corpus has anything to search.
func (s *ChatService) RetrievalEnabled() bool {
	return s.corpus.Enabled()
}

// CorpusSize returns the number of loaded corpus records.
func (s *ChatService) CorpusSize() int {
	return s.corpus.Size()
}

// prepare runs the shared INIT stages: validate, moderate, retrieve,
// assemble. No upstream completion call happens here. A missing
// credential is a configuration error caught before any network call.
func (s *ChatService) prepare(ctx context.Context, req ChatRequest) ([]domain.PromptMessage, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if s.cfg.APIKey == "" {
		return nil, port.ErrMissingAPIKey
	}

	if err := s.screen(ctx, req.Message); err != nil {
		return nil, err
	}

	docs := s.retrieve(ctx, req.Message)

	return assemblePrompt(s.cfg.SystemPrompt, docs, req.History, req.Message, s.cfg.HistoryMaxTurns), nil
}

// validate rejects empty or oversized input before any network call.
func (s *ChatService) validate(req ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return port.ErrEmptyMessage
	}
	if len(req.Message) > s.cfg.MaxMessageChars {
		return port.ErrMessageTooLong
	}
	return nil
}

// screen runs the moderation gate. The gate fails open: any call failure
// resolves to not-flagged with the failure logged. A flagged verdict
// stops the pipeline before retrieval and completion.
func (s *ChatService) screen(ctx context.Context, message string) error {
	if !s.cfg.ModerationEnabled {
		return nil
	}

	modCtx, cancel := context.WithTimeout(ctx, s.cfg.ModerationTimeout)
	defer cancel()

	verdict, err := s.ai.Moderate(modCtx, message)
	if err != nil {
		slog.Warn("moderation check failed, continuing unmoderated", "error", err)
		return nil
	}

	if verdict.Flagged {
		slog.Info("message flagged by moderation", "raw", string(verdict.Raw))
		return port.ErrFlagged
	}
	return nil
}

// retrieve embeds the message and ranks the corpus against it. Any
// failure degrades to no retrieved context; it never fails the request.
func (s *ChatService) retrieve(ctx context.Context, message string) []domain.RankedDoc {
	if !s.corpus.Enabled() {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	queryVector, err := s.ai.Embed(embedCtx, message)
	if err != nil {
		slog.Warn("query embedding failed, continuing without context", "error", err)
		return nil
	}

	ranked := rag.Rank(s.corpus.Records(), queryVector)
	return rag.TopK(ranked, s.cfg.RetrievalTopK)
}

func (s *ChatService) params() port.CompletionParams {
	return port.CompletionParams{
		Temperature:      s.cfg.Temperature,
		MaxTokens:        s.cfg.MaxTokens,
		TopP:             s.cfg.TopP,
		FrequencyPenalty: s.cfg.FrequencyPenalty,
		PresencePenalty:  s.cfg.PresencePenalty,
	}
}
