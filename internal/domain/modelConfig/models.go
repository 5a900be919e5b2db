package modelConfig

import "strings"

// Provider is the closed set of generation backends.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderKubeflow  Provider = "kubeflow"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// RedactedKey replaces stored api keys in API responses.
const RedactedKey = "****"

var knownProviders = []Provider{ProviderOpenAI, ProviderGoogle, ProviderKubeflow, ProviderOllama, ProviderAnthropic}

func (p Provider) Normalize() Provider {
	return Provider(strings.ToLower(strings.TrimSpace(string(p))))
}

func (p Provider) IsKnown() bool {
	n := p.Normalize()
	for _, k := range knownProviders {
		if n == k {
			return true
		}
	}
	return false
}

type ModelConfig struct {
	Id             string   `json:"id" yaml:"id" validate:"required"`
	Name           string   `json:"name" yaml:"name" validate:"required"`
	Provider       Provider `json:"provider" yaml:"provider" validate:"required"`
	ApiKey         string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL        string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DeploymentName string   `json:"deployment_name,omitempty" yaml:"deployment_name,omitempty"`
	IsActive       bool     `json:"is_active" yaml:"is_active"`
}

// Redacted hides the api key when the config leaves the process.
func (m ModelConfig) Redacted() ModelConfig {
	if m.ApiKey != "" {
		m.ApiKey = RedactedKey
	}
	return m
}
