// Package tasks implements the background task queue (SPEC_FULL.md DOMAIN
// STACK: "scheduled evict_expired/refresh sweeps, async card generation,
// batch pipeline fan-out"), grounded in the teacher's
// internal/types/interfaces/task_handler.go TaskHandler contract and built
// on github.com/hibiken/asynq the way the teacher names it in go.mod.
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names, namespaced by concern (asynq convention).
const (
	TypeEvictExpired   = "maintenance:evict_expired"
	TypeRefreshScope   = "maintenance:refresh_scope"
	TypeGenerateCard   = "cards:generate"
	TypeBatchPipeline  = "pipeline:batch"
)

// QueueMaintenance and QueueDefault group tasks for asynq's priority queues.
const (
	QueueMaintenance = "maintenance"
	QueueDefault     = "default"
)

// Batch pipeline fan-out limits (spec.md §5c "batch mode fans out across
// pipeline requests with a caller-supplied concurrency cap (default 5, max
// 10, request cap 20)").
const (
	DefaultBatchConcurrency = 5
	MaxBatchConcurrency     = 10
	MaxBatchRequests        = 20
)

// EvictExpiredPayload names the scope to sweep and its expiry budget.
type EvictExpiredPayload struct {
	Scope      string `json:"scope"`
	ExpireDays int    `json:"expire_days"`
}

// RefreshScopePayload names the scope to refresh and its expiry budget.
type RefreshScopePayload struct {
	Scope      string `json:"scope"`
	ExpireDays int    `json:"expire_days"`
}

// GenerateCardPayload names one article to enrich asynchronously.
type GenerateCardPayload struct {
	ArticleID   string `json:"article_id"`
	RAGEnhanced bool   `json:"rag_enhanced"`
}

// BatchPipelineRequest is one run within a batch pipeline fan-out
// (spec.md §5c), trimmed to what a task payload needs to reconstruct a
// pipeline.Request without importing pipeline's Flags/Limits types.
type BatchPipelineRequest struct {
	User    string `json:"user"`
	Session string `json:"session"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// BatchPipelinePayload is a set of independent pipeline runs to fan out
// concurrently (spec.md §5c "batch pipeline fan-out").
type BatchPipelinePayload struct {
	Requests []BatchPipelineRequest `json:"requests"`
}

func newJSONTask(taskType string, payload interface{}, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data, opts...), nil
}

// Queue wraps an asynq.Client with typed Enqueue helpers for every task
// this package knows how to build.
type Queue struct {
	client *asynq.Client
}

// NewQueue creates a Queue against a Redis-backed asynq broker.
func NewQueue(redisAddr string) *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the underlying asynq client's Redis connection.
func (q *Queue) Close() error { return q.client.Close() }

// EnqueueEvictExpired schedules an out-of-band expired-article sweep.
func (q *Queue) EnqueueEvictExpired(scope string, expireDays int) error {
	task, err := newJSONTask(TypeEvictExpired, EvictExpiredPayload{Scope: scope, ExpireDays: expireDays})
	if err != nil {
		return err
	}
	_, err = q.client.Enqueue(task, asynq.Queue(QueueMaintenance))
	return err
}

// EnqueueRefresh schedules a refresh sweep for scope.
func (q *Queue) EnqueueRefresh(scope string, expireDays int) error {
	task, err := newJSONTask(TypeRefreshScope, RefreshScopePayload{Scope: scope, ExpireDays: expireDays})
	if err != nil {
		return err
	}
	_, err = q.client.Enqueue(task, asynq.Queue(QueueMaintenance))
	return err
}

// EnqueueGenerateCard schedules asynchronous card generation for one article.
func (q *Queue) EnqueueGenerateCard(articleID string, ragEnhanced bool) error {
	task, err := newJSONTask(TypeGenerateCard, GenerateCardPayload{ArticleID: articleID, RAGEnhanced: ragEnhanced})
	if err != nil {
		return err
	}
	_, err = q.client.Enqueue(task, asynq.Queue(QueueDefault), asynq.MaxRetry(2))
	return err
}

// EnqueueBatchPipeline schedules a set of independent pipeline runs to
// execute concurrently off the request path.
func (q *Queue) EnqueueBatchPipeline(requests []BatchPipelineRequest) error {
	task, err := newJSONTask(TypeBatchPipeline, BatchPipelinePayload{Requests: requests})
	if err != nil {
		return err
	}
	_, err = q.client.Enqueue(task, asynq.Queue(QueueDefault), asynq.Timeout(2*time.Minute))
	return err
}
