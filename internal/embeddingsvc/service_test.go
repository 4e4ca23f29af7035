package embeddingsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dimension  int
	modelName  string
	maxBatch   int
	calls      int
	embedError error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.embedError != nil {
		return nil, f.embedError
	}
	if f.maxBatch > 0 && len(texts) > f.maxBatch {
		panic("batch too large")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int   { return f.dimension }
func (f *fakeEmbedder) ModelName() string { return f.modelName }

func TestChunker_SlidingWindowWithOverlap(t *testing.T) {
	words := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	c := NewChunker(512, 100)
	chunks := c.Chunk(text, nil)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 2, chunks[2].Index)
}

func TestChunker_EmptyText(t *testing.T) {
	c := NewChunker(0, 0)
	assert.Nil(t, c.Chunk("   ", nil))
}

func TestService_EmbedBatch_RespectsMaxBatchSize(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 3, modelName: "test-model", maxBatch: 10}
	svc := New(embedder, Config{BatchSize: 10})

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 25)
	assert.Equal(t, 3, embedder.calls)
}

func TestService_Process(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 3, modelName: "test-model"}
	svc := New(embedder, Config{ChunkSize: 5, ChunkOverlap: 1})

	text := strings.Repeat("word ", 20)
	results, err := svc.Process(context.Background(), text, "article-1", map[string]interface{}{"category": "tech"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "article-1", r.Chunk.SourceID)
		assert.Equal(t, "test-model", r.ModelName)
		assert.Equal(t, 3, r.Dimension)
		assert.Equal(t, "tech", r.Chunk.Metadata["category"])
	}
}

func TestService_EmbedOne(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 3, modelName: "test-model"}
	svc := New(embedder, Config{})

	vector, err := svc.EmbedOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
}
