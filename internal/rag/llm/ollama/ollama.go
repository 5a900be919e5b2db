package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/customHttpClient"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/pkg/logger_i"
)

type Backend struct {
	httpClient *http.Client
}

// New builds a backend whose requests give up after timeout. Local models
// can take minutes to load on first use.
func New(timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = config.OllamaTimeout
	}
	return &Backend{httpClient: customHttpClient.NewPooledClient(timeout)}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

func (b *Backend) Generate(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error) {
	base := strings.TrimRight(BaseURL(cfg), "/")
	payload := chatRequest{
		Model:    cfg.Id,
		Messages: make([]chatMessage, 0, len(messages)),
		Stream:   false,
		Options:  chatOptions{Temperature: config.ModelTemperature},
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	logger_i.FromContext(ctx, "llm_ollama").Debug("Sending chat request", "model", cfg.Id, "base", base)
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, out.Error)
	}
	return out.Message.Content, nil
}

// BaseURL prefers the config, then OLLAMA_BASE_URL, then the local default.
func BaseURL(cfg modelConfig.ModelConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
		return env
	}
	return config.OllamaDefaultBase
}
