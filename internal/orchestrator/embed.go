package orchestrator

import (
	"context"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// embedAndIndex runs C4 (chunk + embed) then C5 (upsert) over every
// article a search just saved, completing the data flow spec.md §2 names
// as "C9 → ... C3 ... → C4 → C5". A missing embed/index/docs wiring, or a
// per-article failure, is logged and skipped — RAG enhancement degrades
// gracefully without a populated index (spec.md §4.6, §7).
func (o *Orchestrator) embedAndIndex(ctx context.Context, result *types.IngestResult) {
	if o.embed == nil || o.index == nil || o.docs == nil || result == nil {
		return
	}
	for _, articleID := range result.SavedIDs {
		var article types.Article
		if err := o.docs.FindOne(ctx, ingestion.CollectionNews, interfaces.DocFilter{"_id": articleID}, &article); err != nil {
			common.PipelineWarn(ctx, stageName, "embed_index_article_missing", map[string]interface{}{"article_id": articleID})
			continue
		}
		records, err := o.embed.Process(ctx, article.Body, article.ID, map[string]interface{}{"article_id": article.ID})
		if err != nil {
			common.PipelineWarn(ctx, stageName, "embed_failed", map[string]interface{}{"article_id": articleID, "error": err.Error()})
			continue
		}
		if err := o.index.Upsert(ctx, records); err != nil {
			common.PipelineWarn(ctx, stageName, "vector_upsert_failed", map[string]interface{}{"article_id": articleID, "error": err.Error()})
		}
	}
}
