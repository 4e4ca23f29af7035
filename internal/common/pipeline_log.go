// Package common holds small cross-cutting helpers shared by the
// orchestrator, ingestion, enrichment, and coordinator stages.
package common

import (
	"context"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
)

// PipelineInfo logs a structured info-level entry for one pipeline stage.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithField("stage", stage).WithField("action", action).WithFields(fields).Info(action)
}

// PipelineWarn logs a structured warn-level entry for one pipeline stage.
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithField("stage", stage).WithField("action", action).WithFields(fields).Warn(action)
}

// PipelineError logs a structured error-level entry for one pipeline stage.
func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithField("stage", stage).WithField("action", action).WithFields(fields).Error(action)
}
