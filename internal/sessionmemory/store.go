// Package sessionmemory implements the Session Memory Store (spec.md
// §4.8): per-session rolling transcript and optional user-context blob,
// persisted in the document datastore and fronted by the best-effort
// cache port, grounded in the teacher's web_search_state.go cache-then-store
// read pattern.
package sessionmemory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// CollectionSessionMemory is the document datastore collection holding the
// per-session transcript blob, keyed by session ID (spec.md §6).
const CollectionSessionMemory = "session_memory"

// cacheTTLSeconds bounds how long a session memory read-through cache entry
// is kept; misses always fall through to the store (spec.md §5
// "cache misses never cause failures").
const cacheTTLSeconds = 300

// Store implements the Session Memory Store's get/save/clear operations.
type Store struct {
	docs  interfaces.DocStore
	cache interfaces.CachePort // may be nil
	now   func() time.Time
}

// New creates a Store over docs, optionally fronted by cache.
func New(docs interfaces.DocStore, cache interfaces.CachePort) *Store {
	return &Store{docs: docs, cache: cache, now: time.Now}
}

func cacheKey(session string) string { return "session_memory:" + session }

// Get returns the session's memory, or (nil, false) if none exists
// (spec.md §4.8 get).
func (s *Store) Get(ctx context.Context, session string) (*types.SessionMemory, bool) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey(session)); ok {
			var mem types.SessionMemory
			if err := json.Unmarshal([]byte(raw), &mem); err == nil {
				return &mem, true
			}
		}
	}

	var mem types.SessionMemory
	if err := s.docs.FindOne(ctx, CollectionSessionMemory, interfaces.DocFilter{"_id": session}, &mem); err != nil {
		return nil, false
	}
	s.writeCache(ctx, &mem)
	return &mem, true
}

// Save replaces the session's memory atomically (spec.md §5 "a session
// update is read-modify-write and must be serialized per session"; callers
// are responsible for holding a per-session lock across the
// Get-mutate-Save sequence — see spec.md §5 "Ordering guarantees").
// History is truncated to the last types.MaxHistoryTurns entries.
func (s *Store) Save(ctx context.Context, mem *types.SessionMemory) error {
	if len(mem.ConversationHistory) > types.MaxHistoryTurns {
		mem.ConversationHistory = mem.ConversationHistory[len(mem.ConversationHistory)-types.MaxHistoryTurns:]
	}
	mem.UpdatedAt = s.now()

	update := map[string]interface{}{
		"conversation_history": mem.ConversationHistory,
		"user_context":         mem.UserContext,
		"updated_at":           mem.UpdatedAt,
	}
	if err := s.docs.UpdateOne(ctx, CollectionSessionMemory, interfaces.DocFilter{"_id": mem.SessionID}, update); err != nil {
		return err
	}
	s.writeCache(ctx, mem)
	return nil
}

// AppendTurn loads the session's memory (creating one if absent), appends a
// turn, and saves it back (spec.md §4.8, §4.9 "save_memory").
func (s *Store) AppendTurn(ctx context.Context, session string, turn types.Turn) error {
	mem, ok := s.Get(ctx, session)
	if !ok {
		mem = &types.SessionMemory{SessionID: session}
	}
	mem.AppendTurn(turn)
	return s.Save(ctx, mem)
}

// Clear deletes the session's memory (spec.md §4.8 clear, "destroyed when
// the session is deleted").
func (s *Store) Clear(ctx context.Context, session string) error {
	if s.cache != nil {
		s.cache.Del(ctx, cacheKey(session))
	}
	return s.docs.DeleteOne(ctx, CollectionSessionMemory, interfaces.DocFilter{"_id": session})
}

func (s *Store) writeCache(ctx context.Context, mem *types.SessionMemory) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(mem)
	if err != nil {
		logger.Warnf(ctx, "session memory: failed to marshal for cache: %v", err)
		return
	}
	s.cache.Set(ctx, cacheKey(mem.SessionID), string(raw), cacheTTLSeconds)
}
