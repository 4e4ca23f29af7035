// Package provider implements a small provider registry over OpenAI-format
// compatible LM endpoints, grounded in the teacher's
// internal/models/provider package. The news-intelligence core talks to
// exactly one configured chat/embedding endpoint (spec.md §6
// LM_CHAT_BASE_URL); the registry exists so that endpoint can be detected
// and validated the way the teacher's multi-vendor router does, without
// carrying the teacher's vendor-specific quirks this spec has no use for.
package provider

import (
	"strings"
	"sync"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// ProviderName identifies a registered provider.
type ProviderName string

const (
	ProviderOpenAI  ProviderName = "openai"
	ProviderGeneric ProviderName = "generic"
)

// Config is the configuration handed to a Provider for validation.
type Config struct {
	BaseURL   string
	APIKey    string
	ModelName string
}

// ProviderInfo describes a provider's capabilities and defaults.
type ProviderInfo struct {
	Name         ProviderName
	DisplayName  string
	Description  string
	DefaultURLs  map[types.ModelType]string
	ModelTypes   []types.ModelType
	RequiresAuth bool
}

// GetDefaultURL returns the provider's default base URL for mt, or "" if
// the provider has no default for that model type.
func (i ProviderInfo) GetDefaultURL(mt types.ModelType) string {
	return i.DefaultURLs[mt]
}

// Provider is the interface every registered LM provider implements.
type Provider interface {
	Info() ProviderInfo
	ValidateConfig(config *Config) error
}

var (
	mu        sync.RWMutex
	providers = map[ProviderName]Provider{}
)

// Register adds a provider to the registry, keyed by its own Info().Name.
// Called from each provider file's init().
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Info().Name] = p
}

// Get returns the provider registered under name, if any.
func Get(name ProviderName) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// GetOrDefault returns the provider registered under name, falling back to
// the generic OpenAI-compatible provider when name is unrecognized.
func GetOrDefault(name ProviderName) Provider {
	if p, ok := Get(name); ok {
		return p
	}
	p, _ := Get(ProviderGeneric)
	return p
}

// List returns every registered provider.
func List() []Provider {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	return out
}

// DetectProvider infers a ProviderName from a base URL's host, falling back
// to ProviderGeneric for anything unrecognized (including local endpoints).
func DetectProvider(baseURL string) ProviderName {
	lower := strings.ToLower(baseURL)
	if strings.Contains(lower, "api.openai.com") {
		return ProviderOpenAI
	}
	return ProviderGeneric
}
