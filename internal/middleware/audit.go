package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// requestIDKey is the local key holding the per-request id.
const requestIDKey = "audit_request_id"

// AuditMiddleware tags every request with an id and emits a structured
// audit record after the handler runs. The relay keeps no database, so
// the slog stream is the audit trail.
func AuditMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		c.Locals(requestIDKey, requestID)
		c.Set("X-Request-ID", requestID)

		// Capture request data BEFORE handler execution (Fiber reuses
		// context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()

		err := c.Next()

		slog.Info("request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", ip,
		)

		return err
	}
}

// RequestID returns the id assigned by AuditMiddleware, or an empty
// string outside of it.
func RequestID(c fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
