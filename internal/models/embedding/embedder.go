// Package embedding implements the language-model embedding port
// (spec.md §6 LM_EMBED_MODEL) on top of an OpenAI-format compatible
// endpoint, grounded in the teacher's internal/models/embedding package and
// the go-openai client usage shown across the retrieval pack.
package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/models/provider"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// Config configures an OpenAI-backed embedder.
type Config struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	Dimensions int
	Provider   provider.ProviderName
}

// OpenAIEmbedder implements interfaces.EmbeddingPort against any
// OpenAI-format compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	modelName  string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder from config, detecting the provider
// from the base URL when one isn't explicitly configured.
func NewOpenAIEmbedder(config Config) (*OpenAIEmbedder, error) {
	providerName := config.Provider
	if providerName == "" {
		providerName = provider.DetectProvider(config.BaseURL)
	}
	p := provider.GetOrDefault(providerName)
	if err := p.ValidateConfig(&provider.Config{
		BaseURL:   config.BaseURL,
		APIKey:    config.APIKey,
		ModelName: config.ModelName,
	}); err != nil {
		return nil, fmt.Errorf("invalid embedding provider config: %w", err)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		modelName:  config.ModelName,
		dimensions: config.Dimensions,
	}, nil
}

// EmbedBatch embeds up to a caller-determined batch of texts in one call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	logger.GetLogger(ctx).Infof("embedding batch of %d text(s) with model %s", len(texts), e.modelName)

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Dimension returns the embedder's configured vector dimensionality.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimensions
}

// ModelName returns the embedding model name in use.
func (e *OpenAIEmbedder) ModelName() string {
	return e.modelName
}

var _ interfaces.EmbeddingPort = (*OpenAIEmbedder)(nil)
