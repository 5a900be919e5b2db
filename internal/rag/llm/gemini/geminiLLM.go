package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/customHttpClient"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/pkg/logger_i"
	"google.golang.org/genai"
)

var logger = logger_i.NewLogger("llm_gemini")

// Backend keeps one genai client per api key, since configs may carry
// their own keys.
type Backend struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
	// baseURL overrides the Gemini endpoint, used by tests
	baseURL string
}

func New() *Backend {
	return &Backend{clients: make(map[string]*genai.Client)}
}

func (b *Backend) Generate(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error) {
	apiKey := cfg.ApiKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("Google API key not configured: %w", errs.ErrMissingCredential)
	}

	client, err := b.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	system, contents := toContents(messages)
	contentConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](config.ModelTemperature),
	}
	if system != "" {
		contentConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	modelName := ModelName(cfg.Id)
	logger_i.FromContext(ctx, "llm_gemini").Debug("Sending generate request", "model", modelName)
	result, err := client.Models.GenerateContent(ctx, modelName, contents, contentConfig)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", errors.New("empty response from Gemini")
	}
	return result.Text(), nil
}

// ModelName adds the "models/" prefix Gemini expects.
func ModelName(id string) string {
	if strings.HasPrefix(id, config.GoogleModelPrefix) {
		return id
	}
	return config.GoogleModelPrefix + id
}

func (b *Backend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[apiKey]; ok {
		return c, nil
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.NewPooledClient(0),
	}
	if b.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}
	// the client outlives the request that created it
	c, err := genai.NewClient(context.WithoutCancel(ctx), cc)
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, err
	}
	logger.Info("Gemini client created")
	b.clients[apiKey] = c
	return c, nil
}

// toContents folds system messages into the system instruction and maps
// assistant turns onto the "model" role.
func toContents(messages []chatModel.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chatModel.RoleSystem:
			system = append(system, m.Content)
		case chatModel.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
