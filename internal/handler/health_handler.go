package handler

import (
	"log/slog"

	"github.com/arturoeanton/go-rag-relay/internal/adapter/corpus"
	"github.com/arturoeanton/go-rag-relay/internal/service"
	"github.com/gofiber/fiber/v3"
)

// HealthHandler exposes the health check and the admin corpus reload.
type HealthHandler struct {
	chat  *service.ChatService
	store *corpus.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(chat *service.ChatService, store *corpus.Store) *HealthHandler {
	return &HealthHandler{chat: chat, store: store}
}

// Register sets up health and admin routes.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Post("/admin/corpus/reload", h.ReloadCorpus)
}

// Health reports service status and retrieval availability. No side effects.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "ok",
		"retrieval_enabled": h.chat.RetrievalEnabled(),
		"corpus_size":       h.chat.CorpusSize(),
	})
}

// ReloadCorpus re-reads the corpus file on demand. On failure the
// previous snapshot stays active.
func (h *HealthHandler) ReloadCorpus(c fiber.Ctx) error {
	if err := h.store.Reload(); err != nil {
		slog.Error("corpus reload failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "corpus reload failed"})
	}

	slog.Info("corpus reloaded", "size", h.store.Size())
	return c.JSON(fiber.Map{
		"status":      "reloaded",
		"corpus_size": h.store.Size(),
	})
}
