// Package interest implements the Interest Store (spec.md §4.7): per-user
// bounded tag set with add/remove/clear/related-query operations. Grounded
// in the ingestion engine's store-then-merge structure (internal/ingestion)
// adapted to a single scalar array field instead of a per-article record.
package interest

import (
	"context"
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// CollectionUsers is the document datastore collection holding the
// per-user interest array, nested as news_preferences.news_interests per
// spec.md §6 "Persisted state layout".
const CollectionUsers = "users"

// userDoc mirrors the nested shape spec.md §6 specifies for the users
// collection.
type userDoc struct {
	ID              string `bson:"_id"`
	NewsPreferences struct {
		NewsInterests []string `bson:"news_interests"`
	} `bson:"news_preferences"`
}

// Store implements the Interest Store's add/remove/clear/get/related
// operations over an injected DocStore and, for `related`, a ChatPort.
type Store struct {
	store interfaces.DocStore
	chat  interfaces.ChatPort // may be nil: related falls back to the static table
}

// New creates a Store. chat may be nil to force the static fallback table
// for every `related` call.
func New(store interfaces.DocStore, chat interfaces.ChatPort) *Store {
	return &Store{store: store, chat: chat}
}

func (s *Store) load(ctx context.Context, user string) ([]string, error) {
	var doc userDoc
	err := s.store.FindOne(ctx, CollectionUsers, interfaces.DocFilter{"_id": user}, &doc)
	if err != nil {
		return nil, nil // treat "no document yet" as an empty interest set
	}
	return doc.NewsPreferences.NewsInterests, nil
}

func (s *Store) persist(ctx context.Context, user string, tags []string) error {
	return s.store.UpdateOne(ctx, CollectionUsers, interfaces.DocFilter{"_id": user}, map[string]interface{}{
		"news_preferences": map[string]interface{}{"news_interests": tags},
	})
}

// Get returns user's current interest tags (spec.md §4.7 get).
func (s *Store) Get(ctx context.Context, user string) ([]string, error) {
	return s.load(ctx, user)
}

// Add unions tags into user's interest set and caps it at
// types.MaxInterests, keeping the most recently added (spec.md §4.7 add,
// "Cap").
func (s *Store) Add(ctx context.Context, user string, tags []string) ([]string, error) {
	existing, err := s.load(ctx, user)
	if err != nil {
		return nil, err
	}
	merged := types.CapInterests(types.UnionTags(existing, tags))
	if err := s.persist(ctx, user, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Remove differences tags out of user's interest set (spec.md §4.7 remove).
func (s *Store) Remove(ctx context.Context, user string, tags []string) ([]string, error) {
	existing, err := s.load(ctx, user)
	if err != nil {
		return nil, err
	}
	remaining := types.DiffTags(existing, tags)
	if err := s.persist(ctx, user, remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// Clear empties user's interest set (spec.md §4.7 clear).
func (s *Store) Clear(ctx context.Context, user string) error {
	return s.persist(ctx, user, []string{})
}

// Related returns the subset of user's current interests semantically
// related to keyword (spec.md §4.7 "related algorithm"): an LM pass first,
// validated against the actual interest list to reject hallucinated tags,
// falling back to a static keyword map combined with substring match.
func (s *Store) Related(ctx context.Context, user, keyword string) ([]string, error) {
	interests, err := s.load(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(interests) == 0 {
		return nil, nil
	}

	if s.chat != nil {
		if related, ok := s.relatedViaLM(ctx, interests, keyword); ok {
			return related, nil
		}
	}
	return relatedViaKeywordMap(interests, keyword), nil
}

// relatedViaLM asks the language model which of interests relate to keyword,
// then validates every returned item against the real interest list by
// case-insensitive substring match — this is what prevents a hallucinated
// tag from ever reaching the caller (spec.md §4.7 step 2).
func (s *Store) relatedViaLM(ctx context.Context, interests []string, keyword string) ([]string, bool) {
	prompt := buildRelatedPrompt(interests, keyword)
	resp, err := s.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: "You identify which interest tags are semantically related to a topic. Reply with a comma-separated list only, or NONE."},
		{Role: "user", Content: prompt},
	}, interfaces.ChatOptions{Temperature: 0, MaxTokens: 200})
	if err != nil {
		logger.Warnf(ctx, "interest: related LM call failed: %v", err)
		return nil, false
	}

	raw := strings.TrimSpace(resp.Content)
	if raw == "" || strings.EqualFold(raw, "NONE") {
		return nil, false
	}

	candidates := strings.Split(raw, ",")
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if tag, ok := validateAgainstInterests(interests, c); ok {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func buildRelatedPrompt(interests []string, keyword string) string {
	return "Interests: " + strings.Join(interests, ", ") + "\nTopic: " + keyword +
		"\nWhich interests are semantically related to the topic (e.g. \"轨道\" should match \"地铁\", \"高铁\", \"火车\")? " +
		"Reply with a comma-separated subset of the exact interest strings above, or NONE."
}

// validateAgainstInterests checks candidate against the real interest list
// by case-insensitive substring match in either direction, returning the
// real (correctly-cased) interest string on a match.
func validateAgainstInterests(interests []string, candidate string) (string, bool) {
	lowerCandidate := strings.ToLower(candidate)
	for _, tag := range interests {
		lowerTag := strings.ToLower(tag)
		if strings.Contains(lowerTag, lowerCandidate) || strings.Contains(lowerCandidate, lowerTag) {
			return tag, true
		}
	}
	return "", false
}

func relatedViaKeywordMap(interests []string, keyword string) []string {
	related := staticRelatedTable[strings.ToLower(strings.TrimSpace(keyword))]
	out := make([]string, 0)
	seen := make(map[string]struct{})

	consider := func(candidate string) {
		if tag, ok := validateAgainstInterests(interests, candidate); ok {
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
		}
	}

	consider(keyword)
	for _, r := range related {
		consider(r)
	}
	return out
}
