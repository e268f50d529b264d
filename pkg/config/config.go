package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Upstream API (OpenAI-compatible)
	APIKey          string
	APIBaseURL      string
	ChatModel       string
	EmbedModel      string
	ModerationModel string

	// Sampling parameters for completions
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64

	// Pipeline
	SystemPrompt      string
	HistoryMaxTurns   int
	MaxMessageChars   int
	ModerationEnabled bool
	RetrievalTopK     int

	// Corpus
	CorpusPath  string
	CorpusWatch bool

	// Timeouts for external calls
	ModerationTimeout time.Duration
	EmbedTimeout      time.Duration
	CompletionTimeout time.Duration
	StreamTimeout     time.Duration

	// Frontend
	FrontendURL string
}

// DefaultSystemPrompt is used when SYSTEM_PROMPT is not set.
const DefaultSystemPrompt = "You are a helpful assistant. Answer clearly and concisely."

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "RAG Relay"),

		APIKey:          os.Getenv("OPENAI_API_KEY"),
		APIBaseURL:      envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:       envOrDefault("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:      envOrDefault("EMBED_MODEL", "text-embedding-3-small"),
		ModerationModel: envOrDefault("MODERATION_MODEL", "omni-moderation-latest"),

		Temperature:      envOrDefaultFloat("TEMPERATURE", 0.7),
		MaxTokens:        envOrDefaultInt("MAX_TOKENS", 1000),
		TopP:             envOrDefaultFloat("TOP_P", 1.0),
		FrequencyPenalty: envOrDefaultFloat("FREQUENCY_PENALTY", 0),
		PresencePenalty:  envOrDefaultFloat("PRESENCE_PENALTY", 0),

		SystemPrompt:      envOrDefault("SYSTEM_PROMPT", DefaultSystemPrompt),
		HistoryMaxTurns:   envOrDefaultInt("HISTORY_MAX_TURNS", 10),
		MaxMessageChars:   envOrDefaultInt("MAX_MESSAGE_CHARS", 4000),
		ModerationEnabled: envOrDefaultBool("MODERATION_ENABLED", true),
		RetrievalTopK:     envOrDefaultInt("RETRIEVAL_TOP_K", 3),

		CorpusPath:  envOrDefault("CORPUS_PATH", "data/embeddings.json"),
		CorpusWatch: envOrDefaultBool("CORPUS_WATCH", false),

		ModerationTimeout: envOrDefaultDuration("MODERATION_TIMEOUT", 10*time.Second),
		EmbedTimeout:      envOrDefaultDuration("EMBED_TIMEOUT", 10*time.Second),
		CompletionTimeout: envOrDefaultDuration("COMPLETION_TIMEOUT", 2*time.Minute),
		StreamTimeout:     envOrDefaultDuration("STREAM_TIMEOUT", 10*time.Minute),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
