package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// evictInterval and refreshInterval are the cron specs periodic maintenance
// sweeps run at, independent of the Ingestion Engine's own per-request
// evict_expired call (spec.md §4.3) — these catch scopes that go quiet
// between searches.
const (
	evictInterval   = "@every 1h"
	refreshInterval = "@every 6h"
)

// NewScheduler builds an asynq.Scheduler that periodically enqueues
// maintenance sweeps for every scope in scopes, using expireDays as the
// eviction/refresh budget for each (spec.md §4.3's "Eviction"/"Refresh").
func NewScheduler(redisAddr string, scopes []string, expireDays int) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: redisAddr}, nil)

	for _, scope := range scopes {
		evictTask, err := newJSONTask(TypeEvictExpired, EvictExpiredPayload{Scope: scope, ExpireDays: expireDays})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(evictInterval, evictTask, asynq.Queue(QueueMaintenance)); err != nil {
			return nil, fmt.Errorf("tasks: register evict_expired sweep for scope %s: %w", scope, err)
		}

		refreshTask, err := newJSONTask(TypeRefreshScope, RefreshScopePayload{Scope: scope, ExpireDays: expireDays})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(refreshInterval, refreshTask, asynq.Queue(QueueMaintenance)); err != nil {
			return nil, fmt.Errorf("tasks: register refresh sweep for scope %s: %w", scope, err)
		}
	}

	return scheduler, nil
}
