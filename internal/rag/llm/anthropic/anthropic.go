package anthropic

import (
	"context"
	"fmt"

	"github.com/akolanti/vellum/internal/domain/chatModel"
	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
)

// Backend is registered so the provider is recognised, but it does not
// generate yet.
type Backend struct{}

func New() Backend { return Backend{} }

func (Backend) Generate(_ context.Context, cfg modelConfig.ModelConfig, _ []chatModel.Message) (string, error) {
	return "", fmt.Errorf("anthropic provider (model %q): %w", cfg.Id, errs.ErrNotImplemented)
}
