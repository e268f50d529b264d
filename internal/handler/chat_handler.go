package handler

import (
	"errors"
	"log/slog"

	"github.com/arturoeanton/go-rag-relay/internal/port"
	"github.com/arturoeanton/go-rag-relay/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler relays buffered chat requests through the pipeline.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
}

// Chat handles one chat message and returns the full reply as JSON.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var req service.ChatRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	reply, err := h.chat.Reply(c.Context(), req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(fiber.Map{"reply": reply})
}

// writeServiceError maps a pipeline error to a status code and a generic
// body. Upstream detail is logged server-side and never leaks to the
// caller.
func writeServiceError(c fiber.Ctx, err error) error {
	status, message := classifyError(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("chat request failed", "status", status, "error", err)
	} else {
		slog.Info("chat request rejected", "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, port.ErrEmptyMessage):
		return fiber.StatusBadRequest, "message is required"
	case errors.Is(err, port.ErrMessageTooLong):
		return fiber.StatusBadRequest, "message is too long"
	case errors.Is(err, port.ErrFlagged):
		return fiber.StatusBadRequest, "message rejected by content policy"
	case errors.Is(err, port.ErrMissingAPIKey):
		return fiber.StatusInternalServerError, "service is not configured"
	case errors.Is(err, port.ErrUpstream), errors.Is(err, port.ErrMalformedResponse):
		return fiber.StatusBadGateway, "upstream service unavailable"
	default:
		return fiber.StatusInternalServerError, "internal error"
	}
}
