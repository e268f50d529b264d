package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arturoeanton/go-rag-relay/internal/adapter/corpus"
	"github.com/arturoeanton/go-rag-relay/internal/domain"
	"github.com/arturoeanton/go-rag-relay/internal/port"
	"github.com/arturoeanton/go-rag-relay/internal/service"
	"github.com/arturoeanton/go-rag-relay/pkg/config"
	"github.com/gofiber/fiber/v3"
)

// stubProvider drives handler tests with canned provider behavior.
type stubProvider struct {
	flagged      bool
	reply        string
	completeErr  error
	streamEvents []port.StreamEvent
	streamErr    error

	moderateCalls int
	embedCalls    int
	completeCalls int
}

func (s *stubProvider) ModelName() string { return "stub" }

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embedCalls++
	return []float32{1}, nil
}

func (s *stubProvider) Moderate(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	s.moderateCalls++
	return domain.ModerationVerdict{Flagged: s.flagged}, nil
}

func (s *stubProvider) Complete(ctx context.Context, messages []domain.PromptMessage, params port.CompletionParams) (string, error) {
	s.completeCalls++
	return s.reply, s.completeErr
}

func (s *stubProvider) CompleteStream(ctx context.Context, messages []domain.PromptMessage, params port.CompletionParams) (<-chan port.StreamEvent, error) {
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	ch := make(chan port.StreamEvent, len(s.streamEvents))
	for _, ev := range s.streamEvents {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func testApp(provider *stubProvider) *fiber.App {
	cfg := &config.Config{
		APIKey:            "test-key",
		SystemPrompt:      "test",
		HistoryMaxTurns:   4,
		MaxMessageChars:   100,
		ModerationEnabled: true,
		RetrievalTopK:     2,
		ModerationTimeout: time.Second,
		EmbedTimeout:      time.Second,
		CompletionTimeout: time.Second,
		StreamTimeout:     time.Second,
	}
	store := corpus.Empty()
	chat := service.NewChatService(provider, store, cfg)

	app := fiber.New()
	NewChatHandler(chat).Register(app)
	NewStreamHandler(chat, cfg).Register(app)
	NewHealthHandler(chat, store).Register(app)
	return app
}

func postChat(t *testing.T, app *fiber.App, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("invalid JSON body %q: %v", raw, err)
	}
	return resp.StatusCode, parsed
}

func TestChatSuccess(t *testing.T) {
	provider := &stubProvider{reply: "hi there"}
	app := testApp(provider)

	status, body := postChat(t, app, `{"message": "hello"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["reply"] != "hi there" {
		t.Errorf("unexpected reply: %v", body)
	}
}

func TestChatWhitespaceMessage(t *testing.T) {
	provider := &stubProvider{}
	app := testApp(provider)

	status, body := postChat(t, app, `{"message": "   "}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] == "" {
		t.Error("expected an error body")
	}
	if provider.moderateCalls+provider.embedCalls+provider.completeCalls != 0 {
		t.Error("no upstream call may happen for invalid input")
	}
}

func TestChatFlaggedMessage(t *testing.T) {
	provider := &stubProvider{flagged: true}
	app := testApp(provider)

	status, body := postChat(t, app, `{"message": "X"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(body["error"], "policy") {
		t.Errorf("expected policy-violation message, got %q", body["error"])
	}
	if provider.embedCalls != 0 || provider.completeCalls != 0 {
		t.Error("flagged message must not reach retrieval or completion")
	}
}

func TestChatUpstreamFailureIsOpaque(t *testing.T) {
	provider := &stubProvider{
		completeErr: fmt.Errorf("%w: status 500: secret upstream detail", port.ErrUpstream),
	}
	app := testApp(provider)

	status, body := postChat(t, app, `{"message": "hello"}`)
	if status != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if strings.Contains(body["error"], "secret upstream detail") {
		t.Errorf("upstream detail leaked to caller: %q", body["error"])
	}
}

func TestChatMissingAPIKey(t *testing.T) {
	provider := &stubProvider{completeErr: port.ErrMissingAPIKey}
	app := testApp(provider)

	status, _ := postChat(t, app, `{"message": "hello"}`)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
}

func TestChatInvalidBody(t *testing.T) {
	provider := &stubProvider{}
	app := testApp(provider)

	status, _ := postChat(t, app, `{not json`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestHealth(t *testing.T) {
	app := testApp(&stubProvider{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status           string `json:"status"`
		RetrievalEnabled bool   `json:"retrieval_enabled"`
		CorpusSize       int    `json:"corpus_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.RetrievalEnabled || body.CorpusSize != 0 {
		t.Errorf("empty store must report retrieval disabled: %+v", body)
	}
}

func TestReloadWithoutSourceFails(t *testing.T) {
	app := testApp(&stubProvider{})

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/corpus/reload", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
