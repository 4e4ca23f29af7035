// Package ingestion implements the Ingestion Engine (spec.md §4.3):
// scope-dedup, keyword-set merge, stable ID assignment, date
// normalization, and freshness eviction. Grounded in the teacher's
// chat_pipline stage structure (sequential steps over a shared context,
// per-step logging) adapted to a search→dedup→fetch→persist pipeline.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// CollectionNews is the document datastore collection holding Article
// records (spec.md §6).
const CollectionNews = "news"

// DefaultExpireDays is the eviction window used when the caller doesn't
// override it (spec.md §6 NEWS_DEFAULT_EXPIRE_DAYS).
const DefaultExpireDays = 3

// refreshBatchSize and refreshMaxBatches bound the refresh flow's
// re-ingestion fan-out (spec.md §4.3 "Refresh").
const (
	refreshBatchSize  = 5
	refreshMaxBatches = 3
	refreshBatchCount = 5
)

// Engine implements the Ingestion Engine's ingest/evict/refresh operations.
type Engine struct {
	store             interfaces.DocStore
	search            interfaces.SearchPort
	fetch             interfaces.ContentFetchPort
	defaultExpireDays int
	now               func() time.Time
}

// Config configures an Engine.
type Config struct {
	DefaultExpireDays int
}

// New creates an Engine over store, search, and fetch.
func New(store interfaces.DocStore, search interfaces.SearchPort, fetch interfaces.ContentFetchPort, config Config) *Engine {
	expireDays := config.DefaultExpireDays
	if expireDays <= 0 {
		expireDays = DefaultExpireDays
	}
	return &Engine{
		store:             store,
		search:            search,
		fetch:             fetch,
		defaultExpireDays: expireDays,
		now:               time.Now,
	}
}

// Ingest runs the full search → dedup → fetch → persist algorithm
// (spec.md §4.3 "Algorithm (ingest)").
func (e *Engine) Ingest(ctx context.Context, req types.SearchRequest) (*types.IngestResult, error) {
	start := e.now()

	if err := e.EvictExpired(ctx, req.Scope, e.defaultExpireDays); err != nil {
		logger.Warnf(ctx, "ingest: evict_expired failed for scope %s: %v", req.Scope, err)
	}

	raw, err := e.search.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &types.IngestResult{
		Found:      len(raw),
		SavedIDs:   []string{},
		UpdatedIDs: []string{},
		Status:     "ok",
	}

	for _, record := range raw {
		e.ingestOne(ctx, req.Scope, req.Keywords, record, result)
	}

	result.Saved = len(result.SavedIDs)
	result.Updated = len(result.UpdatedIDs)
	result.Elapsed = e.now().Sub(start)
	return result, nil
}

// ingestOne processes a single raw search record per spec.md §4.3 step 3.
// Per-record failures are isolated (logged, not propagated) so the batch
// always returns partial results.
func (e *Engine) ingestOne(
	ctx context.Context, scope string, searchKeywords []string, record types.RawArticle, result *types.IngestResult,
) {
	title := types.NormalizeTitle(record.Title)
	url := types.NormalizeURL(record.URL)
	if title == "" || url == "" {
		return
	}

	var existing types.Article
	err := e.store.FindOne(ctx, CollectionNews, interfaces.DocFilter{
		"scope": scope, "title": title, "url": url,
	}, &existing)

	if err == nil {
		e.mergeKeywords(ctx, &existing, searchKeywords, result)
		return
	}

	body := e.fetch.Fetch(ctx, url)
	if body == "" {
		logger.Debugf(ctx, "ingest: skipping %s, empty body", url)
		return
	}

	article := types.Article{
		ID:        types.ArticleID(title, url, scope),
		Scope:     scope,
		Title:     title,
		URL:       url,
		Source:    record.Source,
		Date:      types.NormalizeDate(record.Date, e.now()),
		Body:      types.BoundBody(body),
		Keywords:  append([]string(nil), searchKeywords...),
		Embedded:  false,
		CreatedAt: e.now(),
		UpdatedAt: e.now(),
	}

	if err := e.store.InsertOne(ctx, CollectionNews, article); err != nil {
		logger.Warnf(ctx, "ingest: failed to insert article %s: %v", article.ID, err)
		return
	}
	result.SavedIDs = append(result.SavedIDs, article.ID)
}

// mergeKeywords implements spec.md §4.3 step 3c: every search that surfaces
// an already-known article contributes its keywords to that article's set.
func (e *Engine) mergeKeywords(ctx context.Context, existing *types.Article, searchKeywords []string, result *types.IngestResult) {
	merged := types.MergeKeywords(existing.Keywords, searchKeywords)
	if types.KeywordSetsEqual(merged, existing.Keywords) {
		return
	}
	if err := e.store.UpdateOne(ctx, CollectionNews, interfaces.DocFilter{"_id": existing.ID}, map[string]interface{}{
		"keywords":   merged,
		"updated_at": e.now(),
	}); err != nil {
		logger.Warnf(ctx, "ingest: failed to merge keywords for article %s: %v", existing.ID, err)
		return
	}
	result.UpdatedIDs = append(result.UpdatedIDs, existing.ID)
}

// EvictExpired deletes every article in scope older than expireDays
// (spec.md §4.3 "Eviction"). Fetch-then-delete-by-ID works uniformly across
// DocStore backends that support only equality filters.
func (e *Engine) EvictExpired(ctx context.Context, scope string, expireDays int) error {
	cutoff := e.now().AddDate(0, 0, -expireDays).Format(types.DateLayout)

	var articles []types.Article
	if err := e.store.FindMany(ctx, CollectionNews, interfaces.DocFilter{"scope": scope}, nil, 0, &articles); err != nil {
		return fmt.Errorf("ingestion: evict_expired: list scope %s: %w", scope, err)
	}

	for _, a := range articles {
		if a.Date >= cutoff {
			continue
		}
		if err := e.store.DeleteOne(ctx, CollectionNews, interfaces.DocFilter{"_id": a.ID}); err != nil {
			logger.Warnf(ctx, "ingestion: evict_expired: failed to delete %s: %v", a.ID, err)
		}
	}
	return nil
}

// Refresh collects the keyword union of articles about to be evicted,
// deletes them, then re-ingests in batches of ≤5 keywords, capped at 3
// batches (spec.md §4.3 "Refresh"). Individual batch failures are logged
// and do not abort the refresh.
func (e *Engine) Refresh(ctx context.Context, scope string, expireDays int) ([]*types.IngestResult, error) {
	cutoff := e.now().AddDate(0, 0, -expireDays).Format(types.DateLayout)

	var articles []types.Article
	if err := e.store.FindMany(ctx, CollectionNews, interfaces.DocFilter{"scope": scope}, nil, 0, &articles); err != nil {
		return nil, fmt.Errorf("ingestion: refresh: list scope %s: %w", scope, err)
	}

	keywordSet := make([]string, 0)
	seen := make(map[string]struct{})
	for _, a := range articles {
		if a.Date >= cutoff {
			continue
		}
		for _, kw := range a.Keywords {
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				keywordSet = append(keywordSet, kw)
			}
		}
		if err := e.store.DeleteOne(ctx, CollectionNews, interfaces.DocFilter{"_id": a.ID}); err != nil {
			logger.Warnf(ctx, "ingestion: refresh: failed to delete %s: %v", a.ID, err)
		}
	}

	results := make([]*types.IngestResult, 0, refreshMaxBatches)
	for i, n := 0, 0; i < len(keywordSet) && n < refreshMaxBatches; i, n = i+refreshBatchSize, n+1 {
		end := i + refreshBatchSize
		if end > len(keywordSet) {
			end = len(keywordSet)
		}
		batch := keywordSet[i:end]

		result, err := e.Ingest(ctx, types.SearchRequest{
			Scope:      scope,
			Keywords:   batch,
			Count:      refreshBatchCount,
			Window:     types.Window1Week,
			ExpireDays: expireDays,
		})
		if err != nil {
			logger.Warnf(ctx, "ingestion: refresh: batch %v failed: %v", batch, err)
			continue
		}
		results = append(results, result)
	}

	return results, nil
}
