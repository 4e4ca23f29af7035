// Package interfaces declares the narrow ports the core consumes from its
// pluggable external collaborators (spec.md §6). Implementations live under
// internal/searchadapter, internal/contentfetcher, internal/models,
// internal/vectorindex, and internal/store; the core only ever depends on
// these interfaces, never on a concrete client.
package interfaces

import (
	"context"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// SearchPort invokes the upstream news search provider (spec.md §4.1, §6).
type SearchPort interface {
	Search(ctx context.Context, req types.SearchRequest) ([]types.RawArticle, error)
}

// ContentFetchPort fetches and extracts the body text of an article URL
// (spec.md §4.2). It never returns an error to the caller: failures surface
// as an empty string.
type ContentFetchPort interface {
	Fetch(ctx context.Context, url string) string
}

// ChatMessage is one turn in a language-model chat request (spec.md §6).
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single LM chat call.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the LM chat port's reply (spec.md §6).
type ChatResponse struct {
	Content    string
	TokensUsed int
}

// ChatPort invokes the language-model chat API (spec.md §6).
type ChatPort interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error)
}

// EmbeddingPort invokes the language-model embedding API (spec.md §6).
type EmbeddingPort interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// VectorIndexPort is the minimal nearest-neighbour surface the core
// requires (spec.md §4.5, §6): content-addressed upsert by
// (article_id, chunk_index) and cosine top-K query.
type VectorIndexPort interface {
	Upsert(ctx context.Context, records []types.EmbeddingResult) error
	Query(ctx context.Context, vector []float32, topK int) ([]types.ScoredArticle, error)
}

// DocFilter is a loosely-typed equality/range filter passed to FindMany,
// mirroring the document datastore port's filter argument (spec.md §6).
type DocFilter map[string]interface{}

// DocSort orders FindMany results; a negative value means descending.
type DocSort map[string]int

// DocStore is the document datastore port (spec.md §6), covering the
// `news`, `users`, `user_sessions`, `session_memory`, `news_embeddings`,
// `conversations`, `user_preferences`, `search_history`, and `api_logs`
// collections.
type DocStore interface {
	InsertOne(ctx context.Context, collection string, doc interface{}) error
	FindOne(ctx context.Context, collection string, filter DocFilter, out interface{}) error
	FindMany(ctx context.Context, collection string, filter DocFilter, sort DocSort, limit int, out interface{}) error
	UpdateOne(ctx context.Context, collection string, filter DocFilter, update interface{}) error
	DeleteOne(ctx context.Context, collection string, filter DocFilter) error
	DeleteMany(ctx context.Context, collection string, filter DocFilter) (int64, error)
	Count(ctx context.Context, collection string, filter DocFilter) (int64, error)
}

// CachePort is the best-effort in-memory cache (spec.md §6). Cache misses
// never cause failures (spec.md §5 "Shared-resource policy").
type CachePort interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttlSeconds int)
	Del(ctx context.Context, key string)
}
