package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/customHttpClient"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// flavor separates hosted OpenAI from OpenAI-compatible in-cluster servers.
type flavor int

const (
	hosted flavor = iota
	compatible
)

type Backend struct {
	flavor  flavor
	timeout time.Duration
}

// NewOpenAI talks to api.openai.com or whatever OPENAI_API_BASE points at.
func NewOpenAI(timeout time.Duration) *Backend {
	return &Backend{flavor: hosted, timeout: timeout}
}

// NewKubeflow talks to an OpenAI-compatible serving endpoint that usually
// needs no real key.
func NewKubeflow(timeout time.Duration) *Backend {
	return &Backend{flavor: compatible, timeout: timeout}
}

func (b *Backend) Generate(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error) {
	baseURL, apiKey, err := b.endpoint(cfg)
	if err != nil {
		return "", err
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewPooledClient(0)),
		option.WithRequestTimeout(b.timeout),
		option.WithMaxRetries(1),
	)

	params := openai.ChatCompletionNewParams{
		Model:       cfg.Id,
		Messages:    toParams(messages),
		Temperature: openai.Float(config.ModelTemperature),
	}
	if b.flavor == compatible {
		params.MaxTokens = openai.Int(config.KubeflowMaxTokens)
	}

	logger_i.FromContext(ctx, "llm_openai").Debug("Sending chat completion", "model", cfg.Id, "baseURL", baseURL)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *Backend) endpoint(cfg modelConfig.ModelConfig) (baseURL, apiKey string, err error) {
	switch b.flavor {
	case compatible:
		baseURL = firstNonEmpty(cfg.BaseURL, os.Getenv("LLM_SERVICE_URL"), config.KubeflowDefaultBase)
		apiKey = firstNonEmpty(cfg.ApiKey, config.KubeflowDummyKey)
	default:
		baseURL = firstNonEmpty(os.Getenv("OPENAI_API_BASE"), config.OpenAIDefaultBase)
		apiKey = firstNonEmpty(cfg.ApiKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return "", "", fmt.Errorf("OpenAI API key not configured: %w", errs.ErrMissingCredential)
		}
	}
	return baseURL, apiKey, nil
}

func toParams(messages []chatModel.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chatModel.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chatModel.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
