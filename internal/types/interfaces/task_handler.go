package interfaces

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskHandler is a interface for handling asynchronous tasks
type TaskHandler interface {
	// Handle handles the task. news-mosaic-go's tasks package implements one
	// per background job type: maintenance sweeps, card generation, and
	// batch pipeline fan-out (spec.md §5c).
	Handle(ctx context.Context, t *asynq.Task) error
}
