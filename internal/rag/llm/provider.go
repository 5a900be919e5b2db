package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/internal/metrics"
	"github.com/akolanti/vellum/internal/registry"
	"github.com/akolanti/vellum/pkg/logger_i"
)

// Backend talks to one provider family. It returns the generated text or
// an error; the Gateway decides how errors reach the caller.
type Backend interface {
	Generate(ctx context.Context, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error)
}

// Generator is what the chat pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, messages []chatModel.Message, modelId string) (string, error)
}

type Gateway struct {
	registry registry.Registry
	backends map[modelConfig.Provider]Backend
	logger   *logger_i.Logger
}

func NewGateway(reg registry.Registry, backends map[modelConfig.Provider]Backend) *Gateway {
	return &Gateway{
		registry: reg,
		backends: backends,
		logger:   logger_i.NewLogger("llm_gateway"),
	}
}

// Generate resolves the model config and dispatches to its backend.
// Backend failures come back as a readable string with a nil error; only
// ErrConfigNotFound is returned as an error.
func (g *Gateway) Generate(ctx context.Context, messages []chatModel.Message, modelId string) (string, error) {
	cfg, err := g.Resolve(modelId)
	if err != nil {
		return "", err
	}
	log := logger_i.FromContext(ctx, "llm_gateway").With("model", cfg.Id, "provider", cfg.Provider)

	provider := cfg.Provider.Normalize()
	start := time.Now()
	text, err := g.dispatch(ctx, provider, cfg, messages)
	metrics.CaptureProviderLatency(string(provider), time.Since(start))
	if err != nil {
		kind := ClassifyError(err)
		metrics.IncrementGenerationFailure(string(provider), kind)
		log.Error("Generation failed", "kind", kind, "error", err)
		return config.LLMErrorPrefix + err.Error(), nil
	}
	log.Debug("Generation complete", "elapsed", time.Since(start))
	return text, nil
}

// Resolve picks the explicit id when given, else the active config, else
// the first registered one.
func (g *Gateway) Resolve(modelId string) (modelConfig.ModelConfig, error) {
	if modelId != "" {
		return g.registry.Get(modelId)
	}
	if active, ok := g.registry.GetActive(); ok {
		return active, nil
	}
	all := g.registry.List()
	if len(all) == 0 {
		return modelConfig.ModelConfig{}, fmt.Errorf("registry is empty: %w", errs.ErrConfigNotFound)
	}
	return all[0], nil
}

func (g *Gateway) dispatch(ctx context.Context, provider modelConfig.Provider, cfg modelConfig.ModelConfig, messages []chatModel.Message) (string, error) {
	if !provider.IsKnown() {
		return "", fmt.Errorf("%w: %q", errs.ErrUnsupportedProvider, cfg.Provider)
	}
	backend, ok := g.backends[provider]
	if !ok || backend == nil {
		return "", fmt.Errorf("provider %q: %w", provider, errs.ErrNotImplemented)
	}
	return backend.Generate(ctx, cfg, messages)
}

// ClassifyError buckets a backend error for metrics labels.
func ClassifyError(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, errs.ErrMissingCredential):
		return "credential"
	case errors.Is(err, errs.ErrUnsupportedProvider), errors.Is(err, errs.ErrNotImplemented):
		return "config"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &netErr):
		return "transport"
	default:
		return "provider"
	}
}
