package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/pipeline"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const stageName = "Tasks"

// Handlers implements interfaces.TaskHandler once per task type this
// package defines, each wired to the leaf component that does the work.
type Handlers struct {
	ingestion        *ingestion.Engine
	enrichment       *enrichment.Engine
	coordinator      *pipeline.Coordinator
	docs             interfaces.DocStore
	batchConcurrency int
}

// NewHandlers creates Handlers over the components background tasks drive.
// Any dependency may be nil if the deployment never enqueues the
// corresponding task type. batchConcurrency is the PIPELINE_BATCH_MAX_
// CONCURRENT fan-out cap (spec.md §5c/§6); a value outside (0, MaxBatch
// Concurrency] is clamped to DefaultBatchConcurrency.
func NewHandlers(ingestionEngine *ingestion.Engine, enrich *enrichment.Engine, coordinator *pipeline.Coordinator, docs interfaces.DocStore, batchConcurrency int) *Handlers {
	if batchConcurrency <= 0 || batchConcurrency > MaxBatchConcurrency {
		batchConcurrency = DefaultBatchConcurrency
	}
	return &Handlers{ingestion: ingestionEngine, enrichment: enrich, coordinator: coordinator, docs: docs, batchConcurrency: batchConcurrency}
}

// EvictExpiredHandler implements interfaces.TaskHandler for TypeEvictExpired.
type EvictExpiredHandler struct{ h *Handlers }

func (eh EvictExpiredHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p EvictExpiredPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: unmarshal evict_expired payload: %w", err)
	}
	if err := eh.h.ingestion.EvictExpired(ctx, p.Scope, p.ExpireDays); err != nil {
		common.PipelineWarn(ctx, stageName, "evict_expired_failed", map[string]interface{}{"scope": p.Scope, "error": err.Error()})
		return err
	}
	return nil
}

// RefreshScopeHandler implements interfaces.TaskHandler for TypeRefreshScope.
type RefreshScopeHandler struct{ h *Handlers }

func (rh RefreshScopeHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p RefreshScopePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: unmarshal refresh_scope payload: %w", err)
	}
	if _, err := rh.h.ingestion.Refresh(ctx, p.Scope, p.ExpireDays); err != nil {
		common.PipelineWarn(ctx, stageName, "refresh_scope_failed", map[string]interface{}{"scope": p.Scope, "error": err.Error()})
		return err
	}
	return nil
}

// GenerateCardHandler implements interfaces.TaskHandler for TypeGenerateCard.
type GenerateCardHandler struct{ h *Handlers }

func (gh GenerateCardHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p GenerateCardPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: unmarshal generate_card payload: %w", err)
	}
	var article types.Article
	if err := gh.h.docs.FindOne(ctx, ingestion.CollectionNews, interfaces.DocFilter{"_id": p.ArticleID}, &article); err != nil {
		return fmt.Errorf("tasks: load article %s: %w", p.ArticleID, err)
	}
	card, err := gh.h.enrichment.GenerateCard(ctx, article, enrichment.Options{RAGEnhanced: p.RAGEnhanced})
	if err != nil {
		return fmt.Errorf("tasks: generate card for %s: %w", p.ArticleID, err)
	}
	if err := gh.h.docs.InsertOne(ctx, enrichment.CollectionCards, card); err != nil {
		return fmt.Errorf("tasks: persist card for %s: %w", p.ArticleID, err)
	}
	return nil
}

// BatchPipelineHandler implements interfaces.TaskHandler for
// TypeBatchPipeline, fanning the batch's independent runs out concurrently,
// bounded by Handlers.batchConcurrency (spec.md §5c).
type BatchPipelineHandler struct{ h *Handlers }

func (bh BatchPipelineHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p BatchPipelinePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: unmarshal batch_pipeline payload: %w", err)
	}

	requests := p.Requests
	if len(requests) > MaxBatchRequests {
		common.PipelineWarn(ctx, stageName, "batch_pipeline_trimmed", map[string]interface{}{
			"requested": len(requests), "cap": MaxBatchRequests,
		})
		requests = requests[:MaxBatchRequests]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bh.h.batchConcurrency)
	for _, r := range requests {
		r := r
		g.Go(func() error {
			_, err := bh.h.coordinator.Run(gctx, pipeline.Request{
				User: r.User, Session: r.Session, Message: r.Message, Mode: types.PipelineMode(r.Mode),
			})
			if err != nil {
				common.PipelineWarn(gctx, stageName, "batch_pipeline_run_failed", map[string]interface{}{"user": r.User, "error": err.Error()})
			}
			return nil
		})
	}
	return g.Wait()
}

var (
	_ interfaces.TaskHandler = EvictExpiredHandler{}
	_ interfaces.TaskHandler = RefreshScopeHandler{}
	_ interfaces.TaskHandler = GenerateCardHandler{}
	_ interfaces.TaskHandler = BatchPipelineHandler{}
)

// RegisterHandlers wires every task type this package defines onto mux.
func RegisterHandlers(mux *asynq.ServeMux, h *Handlers) {
	mux.HandleFunc(TypeEvictExpired, EvictExpiredHandler{h}.Handle)
	mux.HandleFunc(TypeRefreshScope, RefreshScopeHandler{h}.Handle)
	mux.HandleFunc(TypeGenerateCard, GenerateCardHandler{h}.Handle)
	mux.HandleFunc(TypeBatchPipeline, BatchPipelineHandler{h}.Handle)
}
