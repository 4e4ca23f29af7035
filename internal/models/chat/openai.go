// Package chat implements the language-model chat port (spec.md §6
// LM_CHAT_BASE_URL) on top of an OpenAI-format compatible endpoint,
// grounded in the teacher's internal/models/chat package (request/response
// shape, logging style) and the go-openai client usage shown across the
// retrieval pack.
package chat

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/models/provider"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// Config configures an OpenAI-backed chat client.
type Config struct {
	BaseURL     string
	APIKey      string
	ModelName   string
	Provider    provider.ProviderName
	Temperature float64
	MaxTokens   int
}

// OpenAIChat implements interfaces.ChatPort against any OpenAI-format
// compatible chat completions endpoint.
type OpenAIChat struct {
	client      *openai.Client
	modelName   string
	temperature float64
	maxTokens   int
}

// NewOpenAIChat creates a chat client from config, detecting the provider
// from the base URL when one isn't explicitly configured.
func NewOpenAIChat(config Config) (*OpenAIChat, error) {
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
		return nil, fmt.Errorf("invalid chat provider config: %w", err)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIChat{
		client:      openai.NewClientWithConfig(clientConfig),
		modelName:   config.ModelName,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
	}, nil
}

func (c *OpenAIChat) convertMessages(messages []interfaces.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// Chat sends a non-streaming chat completion request.
func (c *OpenAIChat) Chat(
	ctx context.Context, messages []interfaces.ChatMessage, opts interfaces.ChatOptions,
) (*interfaces.ChatResponse, error) {
	logger.GetLogger(ctx).Infof("sending chat request to model %s", c.modelName)

	temperature := c.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    c.convertMessages(messages),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat response contained no choices")
	}

	return &interfaces.ChatResponse{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

var _ interfaces.ChatPort = (*OpenAIChat)(nil)
