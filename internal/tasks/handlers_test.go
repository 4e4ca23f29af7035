package tasks

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/interest"
	"github.com/sjq0098/news-mosaic-go/internal/orchestrator"
	"github.com/sjq0098/news-mosaic-go/internal/pipeline"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

type fakeChat struct{}

func (fakeChat) Chat(_ context.Context, _ []interfaces.ChatMessage, _ interfaces.ChatOptions) (*interfaces.ChatResponse, error) {
	return &interfaces.ChatResponse{Content: "not json"}, nil
}

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, _ types.SearchRequest) ([]types.RawArticle, error) {
	return nil, nil
}

type fakeFetch struct{}

func (fakeFetch) Fetch(_ context.Context, _ string) string { return "" }

func mustTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, data)
}

func TestEvictExpiredHandler_CallsIngestionEvictExpired(t *testing.T) {
	docs := memstore.New()
	require.NoError(t, docs.InsertOne(context.Background(), ingestion.CollectionNews, types.Article{
		ID: "a1", Scope: "user:u1", Date: "2000-01-01",
	}))
	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	h := NewHandlers(ingestionEngine, nil, nil, docs, 0)

	task := mustTask(t, TypeEvictExpired, EvictExpiredPayload{Scope: "user:u1", ExpireDays: 3})
	require.NoError(t, EvictExpiredHandler{h}.Handle(context.Background(), task))

	var remaining []types.Article
	require.NoError(t, docs.FindMany(context.Background(), ingestion.CollectionNews, interfaces.DocFilter{"scope": "user:u1"}, nil, 0, &remaining))
	assert.Empty(t, remaining)
}

func TestGenerateCardHandler_PersistsCard(t *testing.T) {
	docs := memstore.New()
	require.NoError(t, docs.InsertOne(context.Background(), ingestion.CollectionNews, types.Article{ID: "a1", Title: "t", Body: "b"}))
	enrich := enrichment.New(fakeChat{}, nil, nil)
	h := NewHandlers(nil, enrich, nil, docs, 0)

	task := mustTask(t, TypeGenerateCard, GenerateCardPayload{ArticleID: "a1"})
	require.NoError(t, GenerateCardHandler{h}.Handle(context.Background(), task))

	var cards []types.Card
	require.NoError(t, docs.FindMany(context.Background(), enrichment.CollectionCards, interfaces.DocFilter{}, nil, 0, &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "a1", cards[0].ArticleID)
}

func TestGenerateCardHandler_MissingArticleErrors(t *testing.T) {
	docs := memstore.New()
	enrich := enrichment.New(fakeChat{}, nil, nil)
	h := NewHandlers(nil, enrich, nil, docs, 0)

	task := mustTask(t, TypeGenerateCard, GenerateCardPayload{ArticleID: "missing"})
	err := GenerateCardHandler{h}.Handle(context.Background(), task)
	assert.Error(t, err)
}

// concurrencyTrackingChat counts how many Chat calls are in flight
// simultaneously, holding each call open briefly so overlapping goroutines
// have a chance to collide if nothing bounds them.
type concurrencyTrackingChat struct {
	inFlight int32
	max      int32
	mu       sync.Mutex
}

func (c *concurrencyTrackingChat) Chat(_ context.Context, _ []interfaces.ChatMessage, _ interfaces.ChatOptions) (*interfaces.ChatResponse, error) {
	cur := atomic.AddInt32(&c.inFlight, 1)
	c.mu.Lock()
	if cur > c.max {
		c.max = cur
	}
	c.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&c.inFlight, -1)
	return &interfaces.ChatResponse{Content: "reply"}, nil
}

func newTestCoordinator(t *testing.T, chat interfaces.ChatPort) *pipeline.Coordinator {
	t.Helper()
	docs := memstore.New()
	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	interestStore := interest.New(docs, nil)
	sessions := sessionmemory.New(docs, nil)
	orch := orchestrator.New(chat, ingestionEngine, interestStore, sessions, nil, nil, nil, nil)
	enrich := enrichment.New(chat, nil, nil)
	return pipeline.New(orch, nil, enrich, nil, nil, chat, docs, nil)
}

func TestBatchPipelineHandler_BoundsConcurrencyToConfiguredCap(t *testing.T) {
	const maxConcurrent = 3
	chat := &concurrencyTrackingChat{}
	coordinator := newTestCoordinator(t, chat)
	h := NewHandlers(nil, nil, coordinator, nil, maxConcurrent)

	requests := make([]BatchPipelineRequest, 10)
	for i := range requests {
		requests[i] = BatchPipelineRequest{User: "u", Session: "s", Message: "hi", Mode: string(types.ModeEnhancedChat)}
	}

	task := mustTask(t, TypeBatchPipeline, BatchPipelinePayload{Requests: requests})
	require.NoError(t, BatchPipelineHandler{h}.Handle(context.Background(), task))

	assert.LessOrEqual(t, int(chat.max), maxConcurrent)
}

func TestBatchPipelineHandler_TrimsBatchesAboveRequestCap(t *testing.T) {
	chat := &concurrencyTrackingChat{}
	coordinator := newTestCoordinator(t, chat)
	h := NewHandlers(nil, nil, coordinator, nil, DefaultBatchConcurrency)

	requests := make([]BatchPipelineRequest, MaxBatchRequests+5)
	for i := range requests {
		requests[i] = BatchPipelineRequest{User: "u", Session: "s", Message: "hi", Mode: string(types.ModeEnhancedChat)}
	}

	task := mustTask(t, TypeBatchPipeline, BatchPipelinePayload{Requests: requests})
	require.NoError(t, BatchPipelineHandler{h}.Handle(context.Background(), task))

	assert.LessOrEqual(t, int(chat.max), DefaultBatchConcurrency)
}
