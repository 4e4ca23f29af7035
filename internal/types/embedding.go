package types

// Chunk is one token-bounded slice of an article's text produced by the
// Embedding Service's chunker (spec.md §4.4).
type Chunk struct {
	SourceID string                 `json:"source_id"`
	Index    int                    `json:"index"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EmbeddingResult pairs a Chunk with its dense vector and model info
// (spec.md §4.4).
type EmbeddingResult struct {
	Chunk     Chunk     `json:"chunk"`
	Vector    []float32 `json:"vector"`
	ModelName string    `json:"model_name"`
	Dimension int       `json:"dimension"`
}

// EmbeddingRecord is the persisted (article, chunk) -> vector mapping owned
// by the Vector Index but keyed by Article ID (spec.md §3).
type EmbeddingRecord struct {
	ArticleID string    `bson:"article_id" json:"article_id"`
	ChunkIndex int       `bson:"chunk_index" json:"chunk_index"`
	Vector    []float32 `bson:"vector" json:"vector"`
	ModelName string    `bson:"model_name" json:"model_name"`
	Dimension int       `bson:"dimension" json:"dimension"`
}

// ScoredArticle is one Vector Index query hit (spec.md §4.5).
type ScoredArticle struct {
	ArticleID string
	Score     float64
	Metadata  map[string]interface{}
}
