package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/akolanti/vellum/internal/domain/errs"
	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"github.com/akolanti/vellum/pkg/logger_i"
)

// Registry holds the generation model configurations. At most one entry is
// active at any time.
type Registry interface {
	Get(id string) (modelConfig.ModelConfig, error)
	GetActive() (modelConfig.ModelConfig, bool)
	List() []modelConfig.ModelConfig
	Create(cfg modelConfig.ModelConfig) (modelConfig.ModelConfig, error)
	Update(id string, cfg modelConfig.ModelConfig) (modelConfig.ModelConfig, error)
}

type MemoryRegistry struct {
	mu      sync.RWMutex
	configs []modelConfig.ModelConfig
	logger  *logger_i.Logger
}

// New seeds a registry in the given order. Duplicate ids keep the first
// entry and, when several seeds are active, the last one wins.
func New(seed []modelConfig.ModelConfig) *MemoryRegistry {
	r := &MemoryRegistry{logger: logger_i.NewLogger("ModelRegistry")}
	seen := make(map[string]bool, len(seed))
	for _, cfg := range seed {
		if seen[cfg.Id] {
			r.logger.Warn("Skipping duplicate model config", "id", cfg.Id)
			continue
		}
		seen[cfg.Id] = true
		if cfg.IsActive {
			r.deactivateAllLocked()
		}
		r.configs = append(r.configs, cfg)
	}
	return r
}

func (r *MemoryRegistry) Get(id string) (modelConfig.ModelConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.configs[i], nil
	}
	return modelConfig.ModelConfig{}, fmt.Errorf("model id %q: %w", id, errs.ErrConfigNotFound)
}

func (r *MemoryRegistry) GetActive() (modelConfig.ModelConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.configs {
		if cfg.IsActive {
			return cfg, true
		}
	}
	return modelConfig.ModelConfig{}, false
}

func (r *MemoryRegistry) List() []modelConfig.ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]modelConfig.ModelConfig, len(r.configs))
	copy(out, r.configs)
	return out
}

func (r *MemoryRegistry) Create(cfg modelConfig.ModelConfig) (modelConfig.ModelConfig, error) {
	if err := validate(cfg); err != nil {
		return modelConfig.ModelConfig{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(cfg.Id) >= 0 {
		return modelConfig.ModelConfig{}, fmt.Errorf("model id %q: %w", cfg.Id, errs.ErrAlreadyExists)
	}
	if cfg.IsActive {
		r.deactivateAllLocked()
	}
	r.configs = append(r.configs, cfg)
	r.logger.Info("Model config created", "id", cfg.Id, "provider", cfg.Provider, "active", cfg.IsActive)
	return cfg, nil
}

// Update replaces the entry stored under id. The path id always wins over
// the body id, and a redacted key keeps the stored secret.
func (r *MemoryRegistry) Update(id string, cfg modelConfig.ModelConfig) (modelConfig.ModelConfig, error) {
	cfg.Id = id
	if err := validate(cfg); err != nil {
		return modelConfig.ModelConfig{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return modelConfig.ModelConfig{}, fmt.Errorf("model id %q: %w", id, errs.ErrNotFound)
	}
	if cfg.ApiKey == modelConfig.RedactedKey {
		cfg.ApiKey = r.configs[i].ApiKey
	}
	if cfg.IsActive {
		r.deactivateAllLocked()
	}
	r.configs[i] = cfg
	r.logger.Info("Model config updated", "id", cfg.Id, "provider", cfg.Provider, "active", cfg.IsActive)
	return cfg, nil
}

func (r *MemoryRegistry) indexLocked(id string) int {
	for i, cfg := range r.configs {
		if cfg.Id == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRegistry) deactivateAllLocked() {
	for i := range r.configs {
		r.configs[i].IsActive = false
	}
}

func validate(cfg modelConfig.ModelConfig) error {
	if strings.TrimSpace(cfg.Id) == "" {
		return fmt.Errorf("id is required: %w", errs.ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("provider is required: %w", errs.ErrInvalidInput)
	}
	return nil
}
