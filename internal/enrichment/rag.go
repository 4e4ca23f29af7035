package enrichment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// ragTopK bounds the merged, deduped related-article set (spec.md §4.6
// "keep top 10 by score").
const ragTopK = 10

// ragContext is the per-generation bundle built by buildRAGContext:
// related articles ready to attach to the card plus the prompt string
// threaded into every sub-analysis.
type ragContext struct {
	RelatedIDs []string
	Scores     map[string]float64
	Summary    string
}

// buildRAGContext issues the four concurrent vector queries spec.md §4.6
// describes for RAG-enhanced mode — by title, by leading 500 characters of
// body, by category keywords, and by article keywords — merges and dedupes
// the hits by article ID, and keeps the top ragTopK by score.
func (e *Engine) buildRAGContext(ctx context.Context, article types.Article) (*ragContext, error) {
	leading := article.Body
	if len([]rune(leading)) > 500 {
		leading = string([]rune(leading)[:500])
	}
	categoryQuery := article.Category
	if categoryQuery == "" {
		categoryQuery = joinKeywords(article.Keywords)
	}

	queries := []string{article.Title, leading, categoryQuery, joinKeywords(article.Keywords)}

	results := make([][]types.ScoredArticle, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if strings.TrimSpace(q) == "" {
				return nil
			}
			vector, err := e.embed.EmbedBatch(gctx, []string{q})
			if err != nil || len(vector) == 0 {
				logger.Warnf(gctx, "enrichment: rag query embed failed: %v", err)
				return nil
			}
			hits, err := e.index.Query(gctx, vector[0], ragTopK)
			if err != nil {
				logger.Warnf(gctx, "enrichment: rag query %d failed: %v", i, err)
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]float64)
	for _, hits := range results {
		for _, h := range hits {
			if h.ArticleID == article.ID {
				continue
			}
			if existing, ok := merged[h.ArticleID]; !ok || h.Score > existing {
				merged[h.ArticleID] = h.Score
			}
		}
	}

	type scored struct {
		id    string
		score float64
	}
	ordered := make([]scored, 0, len(merged))
	for id, score := range merged {
		ordered = append(ordered, scored{id, score})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].score > ordered[j].score })
	if len(ordered) > ragTopK {
		ordered = ordered[:ragTopK]
	}

	rc := &ragContext{RelatedIDs: make([]string, 0, len(ordered)), Scores: make(map[string]float64, len(ordered))}
	var summary strings.Builder
	for _, s := range ordered {
		rc.RelatedIDs = append(rc.RelatedIDs, s.id)
		rc.Scores[s.id] = s.score
		fmt.Fprintf(&summary, "- %s (similarity %.2f)\n", s.id, s.score)
	}
	rc.Summary = summary.String()
	return rc, nil
}
