package service

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/go-rag-relay/internal/domain"
)

// assemblePrompt builds the ordered message sequence sent upstream:
// exactly one system message first (extended with retrieved documents
// when present), the truncated history in original order, and exactly
// one user message last holding the current input.
func assemblePrompt(systemPrompt string, docs []domain.RankedDoc, history []domain.ChatTurn, message string, maxTurns int) []domain.PromptMessage {
	messages := make([]domain.PromptMessage, 0, len(history)+2)
	messages = append(messages, domain.PromptMessage{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(systemPrompt, docs),
	})

	for _, turn := range truncateHistory(history, maxTurns) {
		messages = append(messages, domain.PromptMessage{
			Role:    coerceRole(turn.Role),
			Content: turn.Content,
		})
	}

	messages = append(messages, domain.PromptMessage{
		Role:    domain.RoleUser,
		Content: message,
	})

	return messages
}

// buildSystemPrompt appends a numbered, labeled list of retrieved
// documents and a cite-the-source instruction when docs are present.
func buildSystemPrompt(systemPrompt string, docs []domain.RankedDoc) string {
	if len(docs) == 0 {
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nReference documents:\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, doc.ID, doc.Text)
	}
	b.WriteString("Use these documents when they are relevant to the question and cite the source document by its identifier.")
	return b.String()
}

// truncateHistory keeps the most recent maxTurns entries, preserving
// order. Older turns are dropped, never summarized.
func truncateHistory(history []domain.ChatTurn, maxTurns int) []domain.ChatTurn {
	if maxTurns <= 0 {
		return nil
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	return history
}

// coerceRole restricts caller-supplied roles to the closed user/assistant
// set; anything unrecognized becomes user.
func coerceRole(role string) string {
	switch role {
	case domain.RoleUser, domain.RoleAssistant:
		return role
	default:
		return domain.RoleUser
	}
}
