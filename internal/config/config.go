// Package config loads process configuration from the environment into a
// typed Config struct; no config file is read.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every recognized environment/config option from the system's
// external interface (search, LM chat/embedding, datastore, cache, pipeline
// tuning knobs).
type Config struct {
	Search     SearchConfig
	Chat       ChatConfig
	Embedding  EmbeddingConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Ingestion  IngestionConfig
	Pipeline   PipelineConfig
	Memory     MemoryConfig
}

// SearchConfig configures the upstream news search adapter (C1).
type SearchConfig struct {
	APIKey string
}

// ChatConfig configures the language-model chat port.
type ChatConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// EmbeddingConfig configures the language-model embedding port.
type EmbeddingConfig struct {
	Model     string
	Dimension int
}

// DatabaseConfig configures the document datastore port.
type DatabaseConfig struct {
	URL  string
	Name string
}

// CacheConfig configures the in-memory cache port.
type CacheConfig struct {
	URL string
}

// IngestionConfig configures ingestion defaults (C3).
type IngestionConfig struct {
	DefaultExpireDays int
}

// PipelineConfig configures the embedding chunker/batcher (C4) and the
// pipeline coordinator's concurrency and deadline defaults (C11, §5).
type PipelineConfig struct {
	EmbeddingChunkSize    int
	EmbeddingChunkOverlap int
	EmbeddingBatchSize    int
	BatchMaxConcurrent    int
	BatchMaxConcurrentCap int
	RequestTimeout        time.Duration
}

// MemoryConfig configures the Conversation Context Manager's retention
// policy (C10, spec.md §3 "memory count is bounded by a retention policy").
type MemoryConfig struct {
	RetentionDays     int
	HardCap           int
	MinSimilarity     float64
}

// Load reads configuration from environment variables, applying the defaults
// documented in spec.md §6. It never fails: missing required keys (e.g.
// SEARCH_API_KEY) are left empty and surface as ConfigMissing errors at the
// point of use, per §7.
func Load() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("news_default_expire_days", 3)
	v.SetDefault("embedding_chunk_size", 512)
	v.SetDefault("embedding_chunk_overlap", 100)
	v.SetDefault("embedding_batch_size", 10)
	v.SetDefault("pipeline_batch_max_concurrent", 5)
	v.SetDefault("pipeline_request_timeout_seconds", 120)
	v.SetDefault("lm_embed_dimension", 1536)
	v.SetDefault("memory_retention_days", 90)
	v.SetDefault("memory_hard_cap", 500)
	v.SetDefault("memory_min_similarity", 0.3)

	cfg := &Config{
		Search: SearchConfig{
			APIKey: v.GetString("search_api_key"),
		},
		Chat: ChatConfig{
			APIKey:  v.GetString("lm_chat_key"),
			Model:   v.GetString("lm_chat_model"),
			BaseURL: v.GetString("lm_chat_base_url"),
		},
		Embedding: EmbeddingConfig{
			Model:     v.GetString("lm_embed_model"),
			Dimension: v.GetInt("lm_embed_dimension"),
		},
		Database: DatabaseConfig{
			URL:  v.GetString("db_url"),
			Name: v.GetString("db_name"),
		},
		Cache: CacheConfig{
			URL: v.GetString("cache_url"),
		},
		Ingestion: IngestionConfig{
			DefaultExpireDays: v.GetInt("news_default_expire_days"),
		},
		Pipeline: PipelineConfig{
			EmbeddingChunkSize:    v.GetInt("embedding_chunk_size"),
			EmbeddingChunkOverlap: v.GetInt("embedding_chunk_overlap"),
			EmbeddingBatchSize:    v.GetInt("embedding_batch_size"),
			BatchMaxConcurrent:    v.GetInt("pipeline_batch_max_concurrent"),
			BatchMaxConcurrentCap: 10,
			RequestTimeout:        time.Duration(v.GetInt("pipeline_request_timeout_seconds")) * time.Second,
		},
		Memory: MemoryConfig{
			RetentionDays: v.GetInt("memory_retention_days"),
			HardCap:       v.GetInt("memory_hard_cap"),
			MinSimilarity: v.GetFloat64("memory_min_similarity"),
		},
	}

	if cfg.Pipeline.BatchMaxConcurrent > cfg.Pipeline.BatchMaxConcurrentCap {
		cfg.Pipeline.BatchMaxConcurrent = cfg.Pipeline.BatchMaxConcurrentCap
	}
	if cfg.Pipeline.RequestTimeout <= 0 {
		cfg.Pipeline.RequestTimeout = 120 * time.Second
	}

	return cfg
}
