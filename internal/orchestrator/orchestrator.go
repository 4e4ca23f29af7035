// Package orchestrator implements the Agent Orchestrator (spec.md §4.9): an
// LM-driven state graph that classifies a user message's intent and routes
// it to search, interest-management, or fallback handling, always ending in
// a memory save (except on pure interest edits). Grounded in the teacher's
// chat_pipline sequential-stage structure (internal/ingestion, internal/
// enrichment), reworked from a linear pipeline into branching routes keyed
// by a classification result.
package orchestrator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sjq0098/news-mosaic-go/internal/audit"
	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/embeddingsvc"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/interest"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
	"github.com/sjq0098/news-mosaic-go/internal/utils"
)

const stageName = "Orchestrator"

// maxKeywords bounds extract_keywords' output (spec.md §4.9 "capped at 3").
const maxKeywords = 3

// preciseSearchCount and generalSearchCount are the Ingestion Engine result
// counts for search_precise and search_general respectively (spec.md §4.9).
const (
	preciseSearchCount = 10
	generalSearchCount = 15
)

// loadHistoryTurns bounds how much prior transcript is preloaded before the
// graph runs (spec.md §4.9 "Load history").
const loadHistoryTurns = 5

// windowToExpireDays mirrors types.TimeWindow.ExpireDays for the explicit
// routing table spec.md §4.9 names, kept local so the mapping reads as the
// spec states it rather than through an indirection.
var windowToExpireDays = map[types.TimeWindow]int{
	types.Window1Day:   1,
	types.Window1Week:  7,
	types.Window1Month: 30,
	types.Window1Year:  365,
}

// Request is one turn submitted to the orchestrator.
type Request struct {
	User    string
	Session string
	Message string
}

// OperationOutcome reports the per-line result of a manage_interests
// protocol operation (spec.md §4.9 "All operations report success/failure
// individually").
type OperationOutcome struct {
	Line    string
	Success bool
	Detail  string
}

// Result is the orchestrator's output for one Request.
type Result struct {
	Intent       types.IntentClass
	Reply        string
	IngestResult *types.IngestResult
	Interests    []string
	Operations   []OperationOutcome
	MemorySaved  bool
}

// Orchestrator wires together the LM chat port and the C3/C4/C5/C7/C8
// components the state graph's nodes call into.
type Orchestrator struct {
	chat      interfaces.ChatPort
	ingestion *ingestion.Engine
	interests *interest.Store
	sessions  *sessionmemory.Store
	audit     *audit.Recorder
	docs      interfaces.DocStore
	embed     *embeddingsvc.Service
	index     interfaces.VectorIndexPort
	now       func() time.Time
}

// New creates an Orchestrator. audit may be nil if search-history logging is
// not required by the deployment; docs/embed/index may be nil together to
// skip the embed-and-index step that otherwise follows every search
// (spec.md §2 data flow "C9 → ... C3 ... → C4 → C5").
func New(
	chat interfaces.ChatPort, ingestionEngine *ingestion.Engine, interestStore *interest.Store, sessions *sessionmemory.Store,
	auditRecorder *audit.Recorder, docs interfaces.DocStore, embed *embeddingsvc.Service, index interfaces.VectorIndexPort,
) *Orchestrator {
	return &Orchestrator{
		chat: chat, ingestion: ingestionEngine, interests: interestStore, sessions: sessions,
		audit: auditRecorder, docs: docs, embed: embed, index: index, now: time.Now,
	}
}

// Run executes the full state graph for req: load history, classify_intent,
// then route per spec.md §4.9's routing table.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	message, ok := utils.ValidateInput(req.Message)
	if !ok {
		return &Result{Intent: types.IntentOther, Reply: "I couldn't process that message."}, nil
	}

	history := o.loadHistory(ctx, req.Session)

	intent := o.classifyIntent(ctx, message, history)
	common.PipelineInfo(ctx, stageName, "intent_classified", map[string]interface{}{
		"user": req.User, "intent": string(intent),
	})

	result := &Result{Intent: intent}

	switch intent {
	case types.IntentPreciseSearch:
		keywords, window := o.extractKeywords(ctx, message)
		ingestResult, err := o.searchPrecise(ctx, req.User, req.Scope(), keywords, window)
		if err != nil {
			common.PipelineWarn(ctx, stageName, "search_precise_failed", map[string]interface{}{"error": err.Error()})
		}
		result.IngestResult = ingestResult
		result.Reply = summarizeIngest(ingestResult)
		o.embedAndIndex(ctx, ingestResult)
		o.saveMemory(ctx, req.Session, message, result.Reply)
		result.MemorySaved = true

	case types.IntentVagueSearch:
		ingestResult, err := o.searchGeneral(ctx, req.User, req.Scope())
		if err != nil {
			common.PipelineWarn(ctx, stageName, "search_general_failed", map[string]interface{}{"error": err.Error()})
		}
		result.IngestResult = ingestResult
		result.Reply = summarizeIngest(ingestResult)
		o.embedAndIndex(ctx, ingestResult)
		o.saveMemory(ctx, req.Session, message, result.Reply)
		result.MemorySaved = true

	case types.IntentInterestAdjust:
		ops := o.manageInterests(ctx, req.User, message)
		result.Operations = ops
		if interests, err := o.interests.Get(ctx, req.User); err == nil {
			result.Interests = interests
		}
		result.Reply = summarizeOperations(ops)
		// No memory write on pure interest edits (spec.md §4.9 routing table).

	default:
		result.Reply = o.handleOther(ctx, message, history)
		o.saveMemory(ctx, req.Session, message, result.Reply)
		result.MemorySaved = true
	}

	return result, nil
}

// Scope derives the Ingestion Engine scope for this request, namespaced per
// user so concurrent users never dedup against each other's articles.
func (r Request) Scope() string { return "user:" + r.User }

func (o *Orchestrator) loadHistory(ctx context.Context, session string) []types.Turn {
	mem, ok := o.sessions.Get(ctx, session)
	if !ok {
		return nil
	}
	history := mem.ConversationHistory
	if len(history) > loadHistoryTurns {
		history = history[len(history)-loadHistoryTurns:]
	}
	return history
}

func (o *Orchestrator) saveMemory(ctx context.Context, session, userMessage, assistantReply string) {
	if err := o.sessions.AppendTurn(ctx, session, types.Turn{
		Timestamp: o.now(), User: userMessage, Assistant: assistantReply,
	}); err != nil {
		common.PipelineWarn(ctx, stageName, "save_memory_failed", map[string]interface{}{"error": err.Error()})
	}
}

func summarizeIngest(r *types.IngestResult) string {
	if r == nil {
		return "I wasn't able to search for news right now."
	}
	return "Found " + strconv.Itoa(r.Found) + " articles, saved " + strconv.Itoa(r.Saved) + " new ones."
}

func summarizeOperations(ops []OperationOutcome) string {
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			b.WriteString("; ")
		}
		if op.Success {
			b.WriteString(op.Detail)
		} else {
			b.WriteString("failed: " + op.Detail)
		}
	}
	if b.Len() == 0 {
		return "No interest changes were made."
	}
	return b.String()
}
