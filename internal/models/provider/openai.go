package provider

import (
	"fmt"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIProvider implements the Provider interface for OpenAI's API.
type OpenAIProvider struct{}

func init() {
	Register(&OpenAIProvider{})
}

// Info returns OpenAI provider metadata.
func (p *OpenAIProvider) Info() ProviderInfo {
	return ProviderInfo{
		Name:        ProviderOpenAI,
		DisplayName: "OpenAI",
		Description: "gpt-4o, gpt-4o-mini, text-embedding-3-*, etc.",
		DefaultURLs: map[types.ModelType]string{
			types.ModelTypeChat:      OpenAIBaseURL,
			types.ModelTypeEmbedding: OpenAIBaseURL,
		},
		ModelTypes: []types.ModelType{
			types.ModelTypeChat,
			types.ModelTypeEmbedding,
		},
		RequiresAuth: true,
	}
}

// ValidateConfig validates an OpenAI provider configuration.
func (p *OpenAIProvider) ValidateConfig(config *Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required for OpenAI provider")
	}
	if config.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}
