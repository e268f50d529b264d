package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arturoeanton/go-rag-relay/internal/service"
	"github.com/arturoeanton/go-rag-relay/pkg/config"
	"github.com/gofiber/fiber/v3"
)

// doneSentinel is the payload of the terminal done frame sent to callers.
const doneSentinel = "[DONE]"

// StreamHandler relays streaming chat requests as Server-Sent Events.
type StreamHandler struct {
	chat *service.ChatService
	cfg  *config.Config
}

// NewStreamHandler creates a new SSE stream handler.
func NewStreamHandler(chat *service.ChatService, cfg *config.Config) *StreamHandler {
	return &StreamHandler{chat: chat, cfg: cfg}
}

// Register sets up streaming routes.
func (h *StreamHandler) Register(router fiber.Router) {
	router.Post("/chat/stream", h.ChatStream)
}

// ChatStream runs the pipeline and forwards upstream frames as an event
// stream. Failures during request preparation are plain JSON errors;
// once headers are out, every terminal outcome is a stream event and
// the status stays 200.
func (h *StreamHandler) ChatStream(c fiber.Ctx) error {
	var req service.ChatRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// The stream writer runs after this handler returns and Fiber recycles
	// its context, so the pipeline gets a detached context. cancel is the
	// disconnect signal: a failed flush means the caller is gone and any
	// in-flight upstream read is abandoned.
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.StreamTimeout)

	messages, err := h.chat.Prepare(ctx, req)
	if err != nil {
		cancel()
		return writeServiceError(c, err)
	}

	// From here on the response is committed as an event stream: every
	// outcome, including an upstream failure, is a stream event and the
	// status stays 200.
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		events, err := h.chat.OpenStream(ctx, messages)
		if err != nil {
			slog.Error("stream open failed", "error", err)
			_ = writeErrorEvent(w, "upstream service unavailable")
			return
		}

		for ev := range events {
			switch {
			case ev.Err != nil:
				slog.Error("stream relay failed", "error", ev.Err)
				// Close failures are swallowed: the connection is already
				// unusable when the error frame cannot be written.
				_ = writeErrorEvent(w, "stream interrupted")
				return
			case ev.Done:
				_ = writeFrame(w, doneSentinel)
				return
			default:
				if err := writeFrame(w, ev.Data); err != nil {
					slog.Info("client disconnected mid-stream")
					return
				}
			}
		}

		// Upstream channel closed without a terminal event; treat as done.
		_ = writeFrame(w, doneSentinel)
	})
}

// writeFrame emits one data frame and flushes it immediately.
func writeFrame(w *bufio.Writer, payload string) error {
	if _, err := w.WriteString("data: " + payload + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// writeErrorEvent emits the terminal error event with a generic body.
func writeErrorEvent(w *bufio.Writer, message string) error {
	body, _ := json.Marshal(fiber.Map{"error": message})
	if _, err := w.WriteString("event: error\ndata: " + string(body) + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
