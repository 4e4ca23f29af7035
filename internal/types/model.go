package types

// ModelType distinguishes the kind of language-model capability a provider
// exposes (spec.md §6: chat port vs embedding port).
type ModelType string

const (
	ModelTypeChat      ModelType = "chat"
	ModelTypeEmbedding ModelType = "embedding"
)
