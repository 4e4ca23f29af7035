package embeddingsvc

import (
	"context"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// DefaultBatchSize is the maximum number of texts embedded in one call to
// the LM embedding port (spec.md §4.4 "batch size ≤ 10").
const DefaultBatchSize = 10

// Service implements the Embedding Service's chunk/embed/process
// operations (spec.md §4.4) over an injected interfaces.EmbeddingPort.
type Service struct {
	embedder  interfaces.EmbeddingPort
	chunker   *Chunker
	batchSize int
}

// Config configures a Service.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
}

// New creates a Service backed by embedder.
func New(embedder interfaces.EmbeddingPort, config Config) *Service {
	batchSize := config.BatchSize
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	return &Service{
		embedder:  embedder,
		chunker:   NewChunker(config.ChunkSize, config.ChunkOverlap),
		batchSize: batchSize,
	}
}

// EmbedOne embeds a single text, returning its dense vector
// (spec.md §4.4 embed_one).
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in batches no larger than the configured batch
// size (spec.md §4.4 embed_batch).
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Process chunks text, embeds every chunk, and returns the paired
// (chunk, vector, model info) results (spec.md §4.4 process).
func (s *Service) Process(
	ctx context.Context, text, sourceID string, metadata map[string]interface{},
) ([]types.EmbeddingResult, error) {
	meta := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}

	chunks := s.chunker.Chunk(text, meta)
	if len(chunks) == 0 {
		return nil, nil
	}
	for i := range chunks {
		chunks[i].SourceID = sourceID
	}

	logger.GetLogger(ctx).Infof("embedding %d chunk(s) for source %s", len(chunks), sourceID)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	dimension := s.embedder.Dimension()
	modelName := s.embedder.ModelName()

	results := make([]types.EmbeddingResult, len(chunks))
	for i, c := range chunks {
		var v []float32
		if i < len(vectors) {
			v = vectors[i]
		}
		results[i] = types.EmbeddingResult{
			Chunk:     c,
			Vector:    v,
			ModelName: modelName,
			Dimension: dimension,
		}
	}
	return results, nil
}
