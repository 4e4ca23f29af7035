package convcontext

import (
	"context"
	"sort"

	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

type categoryWeight struct {
	category string
	weight   float64
}

// BumpCategory increments user's weight for category by delta and persists
// it (SPEC_FULL.md supplemented feature 2, grounded in the teacher's
// user_memory_service.py preferred/disliked category tracking, reworked
// from a set-membership model to a weighted-frequency one).
func (m *Manager) BumpCategory(ctx context.Context, user, category string, delta float64) error {
	if category == "" {
		return nil
	}

	var weights types.CategoryWeights
	if err := m.docs.FindOne(ctx, CollectionPreferences, interfaces.DocFilter{"_id": user}, &weights); err != nil {
		weights = types.CategoryWeights{UserID: user}
	}
	weights.Bump(category, delta)

	return m.docs.UpdateOne(ctx, CollectionPreferences, interfaces.DocFilter{"_id": user}, map[string]interface{}{
		"weights": weights.Weights,
	})
}

// TopCategories returns user's n highest-weighted categories, descending.
func (m *Manager) TopCategories(ctx context.Context, user string, n int) ([]string, error) {
	var weights types.CategoryWeights
	if err := m.docs.FindOne(ctx, CollectionPreferences, interfaces.DocFilter{"_id": user}, &weights); err != nil {
		return nil, nil
	}

	pairs := make([]categoryWeight, 0, len(weights.Weights))
	for c, w := range weights.Weights {
		pairs = append(pairs, categoryWeight{c, w})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].weight > pairs[j].weight })

	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.category
	}
	return out, nil
}
