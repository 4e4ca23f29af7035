// Package convcontext implements the Conversation Context Manager (spec.md
// §4.10): per-user Memory Item storage with similarity search, retention
// cleanup, and the "relevant context" fusion bundle used to ground prompts.
// Grounded in the teacher's chat_pipline "AllKnowledge" assembly step
// (merging multiple context sources into one prompt payload) adapted to
// this system's memory/session/preference model.
package convcontext

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const stageName = "ConvContext"

// CollectionMemoryProfiles is the document datastore collection holding
// each user's UserMemoryProfile, keyed by user ID (spec.md §6 "conversations").
const CollectionMemoryProfiles = "conversations"

// CollectionPreferences is the document datastore collection holding each
// user's category-weighted tag frequencies (spec.md §6 "user_preferences",
// SPEC_FULL.md supplemented feature 2).
const CollectionPreferences = "user_preferences"

// minSimilarity is the similarity floor below which a scored memory is
// dropped from query_memories results (spec.md §4.10).
const minSimilarity = 0.3

// ScoredMemory pairs a memory item with its cosine-similarity score against
// a query embedding (spec.md §4.10 "query_memories ... → [memory, score]").
type ScoredMemory struct {
	Memory *types.MemoryItem
	Score  float64
}

// RelevantContext is the fused bundle get_relevant_context assembles for
// downstream prompts (spec.md §4.10 "fuses memories + session context + user
// preferences into a bundle").
type RelevantContext struct {
	Memories        []ScoredMemory
	RecentHistory   []types.Turn
	PreferredTopics []string
	CategoryWeights map[string]float64
}

// QueryFilter narrows query_memories before scoring (spec.md §4.10 "Type,
// importance, and time filters apply before scoring").
type QueryFilter struct {
	Type          types.MemoryType // zero value means "any type"
	MinImportance float64
	Since         time.Time // zero value means "no lower bound"
}

// Manager implements the Conversation Context Manager's operations.
type Manager struct {
	docs      interfaces.DocStore
	embed     interfaces.EmbeddingPort // may be nil; query_memories then scores 0 for every item, below minSimilarity
	sessions  *sessionmemory.Store
	retention int
	hardCap   int
	now       func() time.Time
}

// New creates a Manager. embed may be nil; query_memories then scores every
// item 0, so the minSimilarity floor leaves it returning no items.
func New(docs interfaces.DocStore, embed interfaces.EmbeddingPort, sessions *sessionmemory.Store, retentionDays, hardCap int) *Manager {
	return &Manager{
		docs:      docs,
		embed:     embed,
		sessions:  sessions,
		retention: retentionDays,
		hardCap:   hardCap,
		now:       time.Now,
	}
}

func (m *Manager) loadProfile(ctx context.Context, user string) (*types.UserMemoryProfile, error) {
	var profile types.UserMemoryProfile
	if err := m.docs.FindOne(ctx, CollectionMemoryProfiles, interfaces.DocFilter{"_id": user}, &profile); err != nil {
		return &types.UserMemoryProfile{UserID: user}, nil
	}
	return &profile, nil
}

func (m *Manager) saveProfile(ctx context.Context, profile *types.UserMemoryProfile) error {
	profile.Recompute()
	update := map[string]interface{}{
		"memories":             profile.Memories,
		"preferred_categories": profile.PreferredCategories,
		"disliked_categories":  profile.DislikedCategories,
		"response_style":       profile.ResponseStyle,
		"total_memories":       profile.TotalMemories,
	}
	return m.docs.UpdateOne(ctx, CollectionMemoryProfiles, interfaces.DocFilter{"_id": profile.UserID}, update)
}

// AddMemory appends a new active Memory Item to user's profile and applies
// retention cleanup (spec.md §4.10 "add_memory").
func (m *Manager) AddMemory(ctx context.Context, user string, item types.MemoryItem) error {
	profile, err := m.loadProfile(ctx, user)
	if err != nil {
		return err
	}

	item.UserID = user
	if item.CreatedAt.IsZero() {
		item.CreatedAt = m.now()
	}
	item.IsActive = true
	if item.ID == "" {
		item.ID = fmt.Sprintf("mem_%s_%d", user, m.now().UnixNano())
	}
	if m.embed != nil && item.Body != "" && len(item.Embedding) == 0 {
		vectors, err := m.embed.EmbedBatch(ctx, []string{item.Body})
		if err != nil {
			common.PipelineWarn(ctx, stageName, "embed_memory_failed", map[string]interface{}{"user": user, "error": err.Error()})
		} else if len(vectors) > 0 {
			item.Embedding = vectors[0]
		}
	}

	profile.Memories = append(profile.Memories, &item)
	profile.ApplyRetention(m.now(), m.retention, m.hardCap)
	return m.saveProfile(ctx, profile)
}

// QueryMemories scores user's active memories against query by cosine
// similarity, applying filter before scoring, dropping anything below
// minSimilarity, and returning the top k by descending score (spec.md
// §4.10 "query_memories").
func (m *Manager) QueryMemories(ctx context.Context, user, query string, k int, filter QueryFilter) ([]ScoredMemory, error) {
	profile, err := m.loadProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	candidates := make([]*types.MemoryItem, 0, len(profile.Memories))
	for _, item := range profile.Memories {
		if !item.IsActive {
			continue
		}
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if item.Importance < filter.MinImportance {
			continue
		}
		if !filter.Since.IsZero() && item.CreatedAt.Before(filter.Since) {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var queryVec []float32
	if m.embed != nil && query != "" {
		vectors, err := m.embed.EmbedBatch(ctx, []string{query})
		if err != nil {
			common.PipelineWarn(ctx, stageName, "embed_query_failed", map[string]interface{}{"user": user, "error": err.Error()})
		} else if len(vectors) > 0 {
			queryVec = vectors[0]
		}
	}

	scored := make([]ScoredMemory, 0, len(candidates))
	for _, item := range candidates {
		score := cosineSimilarity(queryVec, item.Embedding)
		if score < minSimilarity {
			continue
		}
		scored = append(scored, ScoredMemory{Memory: item, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// GetRelevantContext fuses query_memories results, recent session history,
// and category-weighted preferences into one bundle for prompt assembly
// (spec.md §4.10 "get_relevant_context").
func (m *Manager) GetRelevantContext(ctx context.Context, user, query, session string) (*RelevantContext, error) {
	memories, err := m.QueryMemories(ctx, user, query, 5, QueryFilter{})
	if err != nil {
		return nil, err
	}

	out := &RelevantContext{Memories: memories}

	if m.sessions != nil && session != "" {
		if mem, ok := m.sessions.Get(ctx, session); ok {
			out.RecentHistory = mem.ConversationHistory
		}
	}

	profile, err := m.loadProfile(ctx, user)
	if err == nil {
		out.PreferredTopics = profile.PreferredCategories
	}

	var weights types.CategoryWeights
	if err := m.docs.FindOne(ctx, CollectionPreferences, interfaces.DocFilter{"_id": user}, &weights); err == nil {
		out.CategoryWeights = weights.Weights
	}

	return out, nil
}

// CleanupExpired applies the retention policy to user's memory profile
// without adding anything, persisting the result (spec.md §4.10 "Expiry
// cleanup enforces per-user retention days and the hard cap").
func (m *Manager) CleanupExpired(ctx context.Context, user string) error {
	profile, err := m.loadProfile(ctx, user)
	if err != nil {
		return err
	}
	profile.ApplyRetention(m.now(), m.retention, m.hardCap)
	return m.saveProfile(ctx, profile)
}
