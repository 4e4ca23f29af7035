package provider

import (
	"fmt"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// GenericProvider implements the Provider interface for any OpenAI-format
// compatible endpoint (local models, self-hosted gateways, etc.).
type GenericProvider struct{}

func init() {
	Register(&GenericProvider{})
}

// Info returns the generic provider's metadata.
func (p *GenericProvider) Info() ProviderInfo {
	return ProviderInfo{
		Name:        ProviderGeneric,
		DisplayName: "Generic (OpenAI-compatible)",
		Description: "Generic API endpoint",
		DefaultURLs: map[types.ModelType]string{}, // must be configured by the caller
		ModelTypes: []types.ModelType{
			types.ModelTypeChat,
			types.ModelTypeEmbedding,
		},
		RequiresAuth: false, // may or may not require a key
	}
}

// ValidateConfig validates a generic provider configuration.
func (p *GenericProvider) ValidateConfig(config *Config) error {
	if config.BaseURL == "" {
		return fmt.Errorf("base URL is required for generic provider")
	}
	if config.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}
