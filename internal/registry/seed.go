package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/akolanti/vellum/internal/domain/modelConfig"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Models []modelConfig.ModelConfig `yaml:"models"`
}

// DefaultModels is the registry shipped with the service.
func DefaultModels() []modelConfig.ModelConfig {
	return []modelConfig.ModelConfig{
		{Id: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: modelConfig.ProviderGoogle},
		{Id: "gpt-4", Name: "GPT-4", Provider: modelConfig.ProviderOpenAI},
		{Id: "claude-3-sonnet", Name: "Claude 3.5 Sonnet", Provider: modelConfig.ProviderAnthropic},
		{Id: "llama3", Name: "Llama 3 (Ollama)", Provider: modelConfig.ProviderOllama},
		{Id: "mistral", Name: "Mistral 7B (Ollama)", Provider: modelConfig.ProviderOllama, IsActive: true},
		{Id: "gemma2", Name: "Gemma 2 9B (Ollama)", Provider: modelConfig.ProviderOllama},
		{Id: "gemma3:4b", Name: "Gemma 3 4B (Ollama)", Provider: modelConfig.ProviderOllama},
		{Id: "llama3.2", Name: "Llama 3.2 3B (Ollama)", Provider: modelConfig.ProviderOllama},
		{Id: "gemma:2b", Name: "Gemma 2B (Ollama)", Provider: modelConfig.ProviderOllama},
	}
}

// LoadSeed reads a YAML seed file. A missing file yields the defaults.
func LoadSeed(path string) ([]modelConfig.ModelConfig, error) {
	if path == "" {
		return DefaultModels(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultModels(), nil
		}
		return nil, fmt.Errorf("read model registry %s: %w", path, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse model registry %s: %w", path, err)
	}
	if len(seed.Models) == 0 {
		return DefaultModels(), nil
	}
	return seed.Models, nil
}
