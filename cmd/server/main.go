// Command server wires every component into one running process: the
// Services struct built here is the single place that knows about every
// concrete adapter, per spec.md §9. The teacher repo ships no cmd/main.go
// of its own (it runs behind a separate HTTP entry point not included in
// the retrieval pack), so this file follows general Go service-wiring idiom
// instead of a teacher template — an explicit Services struct constructed
// once, background workers started explicitly, shutdown on signal.
//
// No HTTP server is started here: spec.md §1 scopes the outward-facing API
// surface out, so this process only runs the asynq worker/scheduler loop
// that background maintenance and batch-pipeline tasks need.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sjq0098/news-mosaic-go/internal/audit"
	"github.com/sjq0098/news-mosaic-go/internal/cache"
	"github.com/sjq0098/news-mosaic-go/internal/config"
	"github.com/sjq0098/news-mosaic-go/internal/contentfetcher"
	"github.com/sjq0098/news-mosaic-go/internal/convcontext"
	"github.com/sjq0098/news-mosaic-go/internal/embeddingsvc"
	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/interest"
	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/models/chat"
	"github.com/sjq0098/news-mosaic-go/internal/models/embedding"
	"github.com/sjq0098/news-mosaic-go/internal/orchestrator"
	"github.com/sjq0098/news-mosaic-go/internal/pipeline"
	"github.com/sjq0098/news-mosaic-go/internal/searchadapter"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/store/mongostore"
	"github.com/sjq0098/news-mosaic-go/internal/tasks"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
	"github.com/sjq0098/news-mosaic-go/internal/vectorindex/qdrant"
)

// workerConcurrency bounds how many asynq tasks (of any type) the worker
// runs at once — a different axis from PIPELINE_BATCH_MAX_CONCURRENT, which
// bounds fan-out *within* a single batch_pipeline task (spec.md §5c, §6).
const workerConcurrency = 10

// Services holds every component main wires together, passed by reference
// to whatever needs it rather than resolved through a container (spec.md §9).
type Services struct {
	Config       *config.Config
	Coordinator  *pipeline.Coordinator
	Orchestrator *orchestrator.Orchestrator
	Queue        *tasks.Queue
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.SetLevel("info")

	svc, err := build(ctx, cfg)
	if err != nil {
		logger.Errorf(ctx, "startup failed: %v", err)
		os.Exit(1)
	}

	mux := asynq.NewServeMux()
	handlers := tasks.NewHandlers(svc.ingestionEngine, svc.enrichmentEngine, svc.Coordinator, svc.docs, cfg.Pipeline.BatchMaxConcurrent)
	tasks.RegisterHandlers(mux, handlers)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Cache.URL},
		asynq.Config{Concurrency: workerConcurrency},
	)

	scopes, err := knownScopes(ctx, svc.docs)
	if err != nil {
		logger.Errorf(ctx, "scope scan failed: %v", err)
		os.Exit(1)
	}
	scheduler, err := tasks.NewScheduler(cfg.Cache.URL, scopes, cfg.Ingestion.DefaultExpireDays)
	if err != nil {
		logger.Errorf(ctx, "scheduler setup failed: %v", err)
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		logger.Errorf(ctx, "asynq server start failed: %v", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Errorf(ctx, "asynq scheduler start failed: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Infof(ctx, "shutdown signal received")

	scheduler.Shutdown()
	srv.Shutdown()
	svc.Queue.Close()
}

// userScopeDoc decodes only the field knownScopes needs out of the users
// collection (interest.CollectionUsers).
type userScopeDoc struct {
	ID string `bson:"_id" json:"id"`
}

// knownScopes scans the users collection for every user ID on record and
// returns their ingestion scopes (orchestrator.Request.Scope()'s "user:"+id
// convention), so the periodic evict/refresh sweeps (spec.md §4.3) cover
// every user who has ever searched rather than registering no jobs at all.
func knownScopes(ctx context.Context, docs interfaces.DocStore) ([]string, error) {
	var users []userScopeDoc
	if err := docs.FindMany(ctx, interest.CollectionUsers, interfaces.DocFilter{}, nil, 0, &users); err != nil {
		return nil, err
	}
	scopes := make([]string, 0, len(users))
	for _, u := range users {
		scopes = append(scopes, "user:"+u.ID)
	}
	return scopes, nil
}

// wiring augments Services with the unexported leaf components only main
// needs directly (task handlers take these, not the exported struct).
type wiring struct {
	*Services
	docs             interfaces.DocStore
	ingestionEngine  *ingestion.Engine
	enrichmentEngine *enrichment.Engine
}

func build(ctx context.Context, cfg *config.Config) (*wiring, error) {
	docs, err := mongostore.New(ctx, cfg.Database.URL, cfg.Database.Name)
	if err != nil {
		return nil, err
	}

	redisCache, err := cache.New(cfg.Cache.URL)
	if err != nil {
		return nil, err
	}

	chatPort, err := chat.NewOpenAIChat(chat.Config{
		BaseURL: cfg.Chat.BaseURL, APIKey: cfg.Chat.APIKey, ModelName: cfg.Chat.Model,
	})
	if err != nil {
		return nil, err
	}

	embedPort, err := embedding.NewOpenAIEmbedder(embedding.Config{
		APIKey: cfg.Chat.APIKey, ModelName: cfg.Embedding.Model, Dimensions: cfg.Embedding.Dimension,
	})
	if err != nil {
		return nil, err
	}

	index, err := qdrant.New(qdrant.Config{
		Host: "localhost", Port: 6334, CollectionName: "news_embeddings",
	})
	if err != nil {
		return nil, err
	}

	search := searchadapter.New(searchadapter.Config{APIKey: cfg.Search.APIKey})
	fetcher := contentfetcher.New()

	ingestionEngine := ingestion.New(docs, search, fetcher, ingestion.Config{DefaultExpireDays: cfg.Ingestion.DefaultExpireDays})
	interestStore := interest.New(docs, chatPort)
	sessions := sessionmemory.New(docs, redisCache)
	convCtx := convcontext.New(docs, embedPort, sessions, cfg.Memory.RetentionDays, cfg.Memory.HardCap)
	enrichmentEngine := enrichment.New(chatPort, embedPort, index)
	auditRecorder := audit.New(docs)
	embedSvc := embeddingsvc.New(embedPort, embeddingsvc.Config{
		ChunkSize: cfg.Pipeline.EmbeddingChunkSize, ChunkOverlap: cfg.Pipeline.EmbeddingChunkOverlap, BatchSize: cfg.Pipeline.EmbeddingBatchSize,
	})

	orch := orchestrator.New(chatPort, ingestionEngine, interestStore, sessions, auditRecorder, docs, embedSvc, index)
	coordinator := pipeline.New(orch, convCtx, enrichmentEngine, embedPort, index, chatPort, docs, auditRecorder)

	queue := tasks.NewQueue(cfg.Cache.URL)

	return &wiring{
		Services: &Services{
			Config: cfg, Coordinator: coordinator, Orchestrator: orch, Queue: queue,
		},
		docs:             docs,
		ingestionEngine:  ingestionEngine,
		enrichmentEngine: enrichmentEngine,
	}, nil
}
