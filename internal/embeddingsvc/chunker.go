// Package embeddingsvc implements the Embedding Service (spec.md §4.4):
// token-aware recursive chunking plus batched embedding over the
// configured LM embedding port. The chunker's sliding-window-with-overlap
// structure is grounded in the retrieval pack's document-splitter family
// (token/character splitters with configurable chunk size and overlap).
package embeddingsvc

import (
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

const (
	// DefaultChunkSize is the approximate token budget per chunk
	// (spec.md §4.4 "chunk size ≈ 512 tokens").
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the approximate token overlap between
	// consecutive chunks (spec.md §4.4 "overlap ≈ 100").
	DefaultChunkOverlap = 100
)

// Chunker splits text into token-approximate, overlapping chunks. Token
// count is approximated by whitespace-delimited word count, matching the
// word-counting approach used across the retrieval pack's text splitters.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a Chunker; non-positive sizes fall back to the
// spec defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into token-approximate chunks of ~chunkSize words with
// ~chunkOverlap words of overlap between consecutive chunks, recursively
// sliding forward until the whole text is covered (spec.md §4.4).
func (c *Chunker) Chunk(text string, metadata map[string]interface{}) []types.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []types.Chunk
	start := 0
	for start < len(words) {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, types.Chunk{
			Index:    len(chunks),
			Text:     strings.Join(words[start:end], " "),
			Metadata: metadata,
		})

		if end >= len(words) {
			break
		}
		start = end - c.chunkOverlap
		if start < 0 {
			start = 0
		}
	}

	return chunks
}
