package convcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// fakeEmbed returns a deterministic unit-ish vector per distinct input
// string so cosine similarity is 1 for identical strings and 0 for
// orthogonal ones.
type fakeEmbed struct {
	vectors map[string][]float32
}

func (f *fakeEmbed) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{0, 0, 1} // orthogonal to anything defined below
	}
	return out, nil
}
func (f *fakeEmbed) Dimension() int    { return 3 }
func (f *fakeEmbed) ModelName() string { return "fake" }

func TestAddMemory_EmbedsAndAppends(t *testing.T) {
	embed := &fakeEmbed{vectors: map[string][]float32{"likes AI news": {1, 0, 0}}}
	m := New(memstore.New(), embed, nil, 90, 500)
	ctx := context.Background()

	err := m.AddMemory(ctx, "u1", types.MemoryItem{Type: types.MemoryPreference, Body: "likes AI news", Importance: 0.8})
	require.NoError(t, err)

	profile, err := m.loadProfile(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, profile.Memories, 1)
	assert.Equal(t, []float32{1, 0, 0}, profile.Memories[0].Embedding)
	assert.Equal(t, 1, profile.TotalMemories)
}

func TestQueryMemories_FiltersBelowSimilarityFloor(t *testing.T) {
	embed := &fakeEmbed{vectors: map[string][]float32{
		"AI breakthroughs":  {1, 0, 0},
		"query about AI":    {1, 0, 0},
		"unrelated weather": {0, 0, 1}, // orthogonal -> score 0, filtered
	}}
	m := New(memstore.New(), embed, nil, 90, 500)
	ctx := context.Background()

	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Body: "AI breakthroughs", Importance: 0.5}))
	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Body: "unrelated weather", Importance: 0.5}))

	results, err := m.QueryMemories(ctx, "u1", "query about AI", 10, QueryFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AI breakthroughs", results[0].Memory.Body)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestQueryMemories_AppliesTypeAndImportanceFilters(t *testing.T) {
	embed := &fakeEmbed{vectors: map[string][]float32{
		"fact one": {1, 0, 0}, "pref one": {1, 0, 0}, "q": {1, 0, 0},
	}}
	m := New(memstore.New(), embed, nil, 90, 500)
	ctx := context.Background()

	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Type: types.MemoryFact, Body: "fact one", Importance: 0.9}))
	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Type: types.MemoryPreference, Body: "pref one", Importance: 0.1}))

	results, err := m.QueryMemories(ctx, "u1", "q", 10, QueryFilter{Type: types.MemoryFact, MinImportance: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fact one", results[0].Memory.Body)
}

func TestCleanupExpired_DeactivatesPastRetention(t *testing.T) {
	m := New(memstore.New(), nil, nil, 30, 500)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Body: "stale", CreatedAt: old, Importance: 0.5}))

	require.NoError(t, m.CleanupExpired(ctx, "u1"))

	profile, err := m.loadProfile(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, profile.Memories, 1)
	assert.False(t, profile.Memories[0].IsActive)
	assert.Equal(t, 0, profile.TotalMemories)
}

func TestGetRelevantContext_FusesMemoriesHistoryAndPreferences(t *testing.T) {
	embed := &fakeEmbed{vectors: map[string][]float32{"likes tech": {1, 0, 0}, "tech": {1, 0, 0}}}
	docs := memstore.New()
	sessions := sessionmemory.New(docs, nil)
	m := New(docs, embed, sessions, 90, 500)
	ctx := context.Background()

	require.NoError(t, m.AddMemory(ctx, "u1", types.MemoryItem{Body: "likes tech", Importance: 0.7}))
	require.NoError(t, sessions.AppendTurn(ctx, "s1", types.Turn{User: "hi", Assistant: "hello"}))
	require.NoError(t, m.BumpCategory(ctx, "u1", "tech", 1))

	rc, err := m.GetRelevantContext(ctx, "u1", "tech", "s1")
	require.NoError(t, err)
	require.Len(t, rc.Memories, 1)
	assert.Len(t, rc.RecentHistory, 1)
	assert.Equal(t, 1.0, rc.CategoryWeights["tech"])
}

func TestBumpAndTopCategories(t *testing.T) {
	m := New(memstore.New(), nil, nil, 90, 500)
	ctx := context.Background()

	require.NoError(t, m.BumpCategory(ctx, "u1", "tech", 3))
	require.NoError(t, m.BumpCategory(ctx, "u1", "sports", 1))
	require.NoError(t, m.BumpCategory(ctx, "u1", "tech", 2))

	top, err := m.TopCategories(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, top)
}
