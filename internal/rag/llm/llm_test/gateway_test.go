package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/internal/rag/llm"
	"github.com/akolanti/vellum/internal/rag/llm/anthropic"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	OnGenerate func(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error)
	calls      []string
}

func (m *MockBackend) Generate(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error) {
	m.calls = append(m.calls, cfg.Id)
	return m.OnGenerate(ctx, cfg, messages)
}

func echoBackend() *MockBackend {
	return &MockBackend{OnGenerate: func(_ context.Context, cfg modelConfig.ModelConfig, _ []chatModel.Message) (string, error) {
		return "from " + cfg.Id, nil
	}}
}

var msgs = []chatModel.Message{chatModel.UserMessage("hi")}

func TestResolution(t *testing.T) {
	seed := []modelConfig.ModelConfig{
		{Id: "gpt-4", Name: "GPT-4", Provider: modelConfig.ProviderOpenAI},
		{Id: "mistral", Name: "Mistral", Provider: modelConfig.ProviderOllama, IsActive: true},
	}
	openai, ollama := echoBackend(), echoBackend()
	gw := llm.NewGateway(registry.New(seed), map[modelConfig.Provider]llm.Backend{
		modelConfig.ProviderOpenAI: openai,
		modelConfig.ProviderOllama: ollama,
	})

	tests := []struct {
		name    string
		modelId string
		want    string
	}{
		{"explicit id", "gpt-4", "from gpt-4"},
		{"active when omitted", "", "from mistral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gw.Generate(context.Background(), msgs, tt.modelId)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []string{"gpt-4"}, openai.calls)
	assert.Equal(t, []string{"mistral"}, ollama.calls)
}

func TestResolutionIsDeterministic(t *testing.T) {
	seed := []modelConfig.ModelConfig{
		{Id: "first", Name: "First", Provider: modelConfig.ProviderOllama},
		{Id: "second", Name: "Second", Provider: modelConfig.ProviderOllama},
	}
	gw := llm.NewGateway(registry.New(seed), map[modelConfig.Provider]llm.Backend{modelConfig.ProviderOllama: echoBackend()})
	for i := 0; i < 5; i++ {
		cfg, err := gw.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "first", cfg.Id)
	}
}

func TestConfigNotFound(t *testing.T) {
	gw := llm.NewGateway(registry.New(registry.DefaultModels()), nil)
	_, err := gw.Generate(context.Background(), msgs, "does-not-exist")
	assert.ErrorIs(t, err, errs.ErrConfigNotFound)

	empty := llm.NewGateway(registry.New(nil), nil)
	_, err = empty.Generate(context.Background(), msgs, "")
	assert.ErrorIs(t, err, errs.ErrConfigNotFound)
}

func TestBackendErrorsBecomeSoftStrings(t *testing.T) {
	failing := &MockBackend{OnGenerate: func(context.Context, modelConfig.ModelConfig, []chatModel.Message) (string, error) {
		return "", errors.New("connection refused")
	}}
	seed := []modelConfig.ModelConfig{
		{Id: "llama3", Name: "Llama", Provider: modelConfig.ProviderOllama},
		{Id: "claude-3-sonnet", Name: "Claude", Provider: modelConfig.ProviderAnthropic},
		{Id: "weird", Name: "Weird", Provider: "cohere"},
		{Id: "gpt-4", Name: "GPT-4", Provider: modelConfig.ProviderOpenAI},
	}
	reg := registry.New(seed)
	gw := llm.NewGateway(reg, map[modelConfig.Provider]llm.Backend{
		modelConfig.ProviderOllama:    failing,
		modelConfig.ProviderAnthropic: anthropic.New(),
	})

	tests := []struct {
		modelId  string
		contains string
	}{
		{"llama3", "connection refused"},
		{"claude-3-sonnet", "not implemented"},
		{"weird", `"cohere"`},
		{"gpt-4", "not implemented"},
	}
	for _, tt := range tests {
		t.Run(tt.modelId, func(t *testing.T) {
			got, err := gw.Generate(context.Background(), msgs, tt.modelId)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got, "Error communicating with LLM: "), got)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "credential", llm.ClassifyError(errs.ErrMissingCredential))
	assert.Equal(t, "config", llm.ClassifyError(errs.ErrNotImplemented))
	assert.Equal(t, "timeout", llm.ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, "provider", llm.ClassifyError(errors.New("boom")))
}
