package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/go-rag-relay/internal/adapter/ai"
	"github.com/arturoeanton/go-rag-relay/internal/adapter/corpus"
	"github.com/arturoeanton/go-rag-relay/internal/handler"
	"github.com/arturoeanton/go-rag-relay/internal/middleware"
	"github.com/arturoeanton/go-rag-relay/internal/service"
	"github.com/arturoeanton/go-rag-relay/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting RAG Relay",
		"port", cfg.Port,
		"chat_model", cfg.ChatModel,
		"embed_model", cfg.EmbedModel,
		"moderation", cfg.ModerationEnabled,
	)

	if cfg.APIKey == "" {
		slog.Warn("OPENAI_API_KEY is not set, completion requests will fail")
	}

	// ── Embedding corpus ─────────────────────────────────────────────────
	// A missing or malformed corpus disables retrieval but never stops the
	// server: the relay still answers without context.
	store, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		slog.Warn("corpus unavailable, retrieval disabled", "path", cfg.CorpusPath, "error", err)
		store = corpus.Empty()
	} else {
		slog.Info("corpus loaded", "path", cfg.CorpusPath, "size", store.Size())
	}

	if cfg.CorpusWatch && store.Enabled() {
		watcher, err := corpus.NewWatcher(store)
		if err != nil {
			slog.Warn("corpus watcher unavailable", "error", err)
		} else {
			defer watcher.Stop()
			if err := watcher.Watch(context.Background()); err != nil {
				slog.Warn("corpus watch failed", "error", err)
			}
		}
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	provider := ai.NewOpenAIProvider(ai.Config{
		BaseURL:         cfg.APIBaseURL,
		APIKey:          cfg.APIKey,
		ChatModel:       cfg.ChatModel,
		EmbedModel:      cfg.EmbedModel,
		ModerationModel: cfg.ModerationModel,
	})

	// ── Services ─────────────────────────────────────────────────────────
	chatService := service.NewChatService(provider, store, cfg)

	// ── Fiber App ────────────────────────────────────────────────────────
	// No WriteTimeout: event-stream responses outlive any fixed deadline.
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	app.Use(middleware.AuditMiddleware())

	// ── Routes ───────────────────────────────────────────────────────────
	chatHandler := handler.NewChatHandler(chatService)
	chatHandler.Register(app)

	streamHandler := handler.NewStreamHandler(chatService, cfg)
	streamHandler.Register(app)

	healthHandler := handler.NewHealthHandler(chatService, store)
	healthHandler.Register(app)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
