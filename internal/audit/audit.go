// Package audit implements the append-only search_history and api_logs
// trail (SPEC_FULL.md supplemented feature 1, grounded in the original's
// Collections.SEARCH_HISTORY / Tables.API_LOGS schema constants), written
// through the document datastore port the same way every other component
// in this module persists state.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const stageName = "Audit"

// CollectionSearchHistory and CollectionAPILogs are the document datastore
// collections this package appends to (SPEC_FULL.md §6 collection list).
const (
	CollectionSearchHistory = "search_history"
	CollectionAPILogs       = "api_logs"
)

// DemoUserID is substituted for an empty user ID on a search-history write
// so a search is never silently dropped for lack of a caller identity
// (SPEC_FULL.md supplemented feature 4; spec.md §9 Open Question). It does
// not extend to interests or memory, which require a real user.
const DemoUserID = "demo-user"

// SearchHistoryEntry is one record of a Search Adapter invocation.
type SearchHistoryEntry struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	Scope      string    `bson:"scope" json:"scope"`
	Keywords   []string  `bson:"keywords" json:"keywords"`
	Window     string    `bson:"window" json:"window"`
	ResultsHit int       `bson:"results_hit" json:"results_hit"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// APILogEntry is one record of a pipeline run, keyed by the operation name
// and outcome (spec.md §4.11's per-mode FeatureResult carries the same
// fields at request scope; this is the durable trail of the same facts).
type APILogEntry struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	Operation  string    `bson:"operation" json:"operation"`
	Success    bool      `bson:"success" json:"success"`
	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
	Detail     string    `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Recorder appends audit trail entries. It never returns a write failure to
// the caller as fatal — audit is observability, not a correctness
// dependency — but logs one warning per failed write.
type Recorder struct {
	docs interfaces.DocStore
	now  func() time.Time
}

// New creates a Recorder over docs.
func New(docs interfaces.DocStore) *Recorder {
	return &Recorder{docs: docs, now: time.Now}
}

// RecordSearch appends one search_history entry for req, substituting
// DemoUserID when user is empty.
func (r *Recorder) RecordSearch(ctx context.Context, user string, req types.SearchRequest, resultsHit int) {
	if user == "" {
		user = DemoUserID
	}
	entry := SearchHistoryEntry{
		ID:         uuid.New().String(),
		UserID:     user,
		Scope:      req.Scope,
		Keywords:   req.Keywords,
		Window:     string(req.Window),
		ResultsHit: resultsHit,
		CreatedAt:  r.now(),
	}
	if err := r.docs.InsertOne(ctx, CollectionSearchHistory, entry); err != nil {
		common.PipelineWarn(ctx, stageName, "search_history_write_failed", map[string]interface{}{"error": err.Error()})
	}
}

// RecordAPICall appends one api_logs entry for a pipeline run.
func (r *Recorder) RecordAPICall(ctx context.Context, user, operation string, success bool, duration time.Duration, detail string) {
	entry := APILogEntry{
		ID:         uuid.New().String(),
		UserID:     user,
		Operation:  operation,
		Success:    success,
		DurationMS: duration.Milliseconds(),
		Detail:     detail,
		CreatedAt:  r.now(),
	}
	if err := r.docs.InsertOne(ctx, CollectionAPILogs, entry); err != nil {
		common.PipelineWarn(ctx, stageName, "api_log_write_failed", map[string]interface{}{"error": err.Error()})
	}
}
