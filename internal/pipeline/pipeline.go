// Package pipeline implements the Pipeline Coordinator (spec.md §4.11): the
// single entry point that dispatches a request to whichever combination of
// the Agent Orchestrator, Conversation Context Manager, Vector Index, and
// Enrichment Engine its mode calls for, and returns a uniform response
// shape with per-feature timings and quality scores. Grounded in the
// teacher's chat_pipline EventBus/plugin-chain assembly (internal/common,
// internal/enrichment) adapted from a fixed plugin chain to a mode-keyed
// dispatch table.
package pipeline

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sjq0098/news-mosaic-go/internal/audit"
	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/convcontext"
	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/orchestrator"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const stageName = "PipelineCoordinator"

// cardGenerationTopN bounds how many top-similarity articles card_generation
// and custom enrich (spec.md §4.11 "C6 on top N articles"); unified_complete
// enriches at most one.
const cardGenerationTopN = 3

// ragQueryTopK bounds rag_analysis's retrieval width.
const ragQueryTopK = 5

// Flags toggles which of {rag, cards, chat} run under ModeCustom
// (spec.md §4.11 "the caller selects which of {rag, cards, chat} to run").
type Flags struct {
	RAG   bool
	Cards bool
	Chat  bool
}

// Limits bounds a single run (spec.md §5 "Cancellation").
type Limits struct {
	Deadline time.Duration
}

// Request is the uniform input to every coordinator mode
// (spec.md §4.11 "{user, session, message, mode, flags, limits}").
type Request struct {
	User    string
	Session string
	Message string
	Mode    types.PipelineMode
	Flags   Flags
	Limits  Limits
}

// FeatureResult is the uniform per-subsystem report shape: a disabled
// feature reports enabled=false, success=true, time=0 (spec.md §4.11).
type FeatureResult struct {
	Enabled bool
	Success bool
	Time    time.Duration
	Error   string
}

func disabledFeature() FeatureResult { return FeatureResult{Enabled: false, Success: true} }

// Response is the coordinator's uniform output.
type Response struct {
	Mode    types.PipelineMode
	Reply   string
	Chat    FeatureResult
	RAG     FeatureResult
	Cards   FeatureResult

	NewsRetrieved  int
	CardsGenerated int
	MemoriesUsed   int

	RelatedArticles []types.ScoredArticle
	GeneratedCards  []*types.Card

	QualityScore          float64
	ContextRelevanceScore float64

	Success bool
}

// Coordinator wires the components each pipeline mode dispatches to.
type Coordinator struct {
	orchestrator *orchestrator.Orchestrator
	convContext  *convcontext.Manager
	enrichment   *enrichment.Engine
	embed        interfaces.EmbeddingPort
	index        interfaces.VectorIndexPort
	chat         interfaces.ChatPort
	docs         interfaces.DocStore
	audit        *audit.Recorder
	now          func() time.Time
}

// New creates a Coordinator. Any dependency may be nil if the deployment
// never exercises the modes that need it; the corresponding FeatureResult
// then reports enabled=false. auditRecorder may be nil to skip api_logs
// writes.
func New(
	orch *orchestrator.Orchestrator,
	convCtx *convcontext.Manager,
	enrich *enrichment.Engine,
	embed interfaces.EmbeddingPort,
	index interfaces.VectorIndexPort,
	chat interfaces.ChatPort,
	docs interfaces.DocStore,
	auditRecorder *audit.Recorder,
) *Coordinator {
	return &Coordinator{
		orchestrator: orch, convContext: convCtx, enrichment: enrich,
		embed: embed, index: index, chat: chat, docs: docs, audit: auditRecorder, now: time.Now,
	}
}

// Run dispatches req by mode (spec.md §4.11).
func (c *Coordinator) Run(ctx context.Context, req Request) (*Response, error) {
	runStart := c.now()
	if req.Limits.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Limits.Deadline)
		defer cancel()
	}

	resp := &Response{Mode: req.Mode, Chat: disabledFeature(), RAG: disabledFeature(), Cards: disabledFeature()}

	switch req.Mode {
	case types.ModeEnhancedChat:
		c.runEnhancedChat(ctx, req, resp)
	case types.ModeRAGAnalysis:
		c.runRAGAnalysis(ctx, req, resp)
	case types.ModeCardGeneration:
		c.runCardGeneration(ctx, req, resp)
	case types.ModeUnifiedComplete:
		c.runUnifiedComplete(ctx, req, resp)
	case types.ModeCustom:
		c.runCustom(ctx, req, resp)
	default:
		resp.Reply = "Unrecognized pipeline mode."
		resp.Success = false
		return resp, nil
	}

	resp.QualityScore = scoreQuality(resp)
	resp.ContextRelevanceScore = scoreContextRelevance(req.Message, resp)
	resp.Success = resp.Reply != "" || resp.Chat.Success || resp.RAG.Success || resp.Cards.Success

	common.PipelineInfo(ctx, stageName, "run_complete", map[string]interface{}{
		"mode": string(req.Mode), "quality_score": resp.QualityScore, "context_relevance": resp.ContextRelevanceScore,
	})
	if c.audit != nil {
		c.audit.RecordAPICall(ctx, req.User, string(req.Mode), resp.Success, c.now().Sub(runStart), "")
	}
	return resp, nil
}

// runEnhancedChat implements mode enhanced_chat: C9 on the bare message, no
// new ingestion. C10's relevant memories are not passed into C9's prompt;
// when any are found, their bodies are appended to the finished reply.
func (c *Coordinator) runEnhancedChat(ctx context.Context, req Request, resp *Response) {
	start := c.now()
	result, err := c.orchestrator.Run(ctx, orchestrator.Request{User: req.User, Session: req.Session, Message: req.Message})
	if err != nil {
		resp.Chat = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(start), Error: err.Error()}
		return
	}

	reply := result.Reply
	if c.convContext != nil {
		if rc, err := c.convContext.GetRelevantContext(ctx, req.User, req.Message, req.Session); err == nil {
			resp.MemoriesUsed = len(rc.Memories)
			reply = applyRelevantContext(reply, rc)
		}
	}

	resp.Reply = reply
	resp.Chat = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(start)}
}

// runRAGAnalysis implements mode rag_analysis: a vector query on message (no
// card), and an LM answer grounded in the retrieved articles.
func (c *Coordinator) runRAGAnalysis(ctx context.Context, req Request, resp *Response) {
	start := c.now()
	hits, err := c.queryByText(ctx, req.Message, ragQueryTopK)
	if err != nil {
		resp.RAG = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(start), Error: err.Error()}
		return
	}

	resp.RelatedArticles = hits
	resp.NewsRetrieved = len(hits)
	resp.Reply = composeRAGAnswer(ctx, c.chat, req.Message, hits)
	resp.RAG = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(start)}
}

// runCardGeneration implements mode card_generation: a vector query, then
// C6 on the top N articles.
func (c *Coordinator) runCardGeneration(ctx context.Context, req Request, resp *Response) {
	ragStart := c.now()
	hits, err := c.queryByText(ctx, req.Message, ragQueryTopK)
	if err != nil {
		resp.RAG = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(ragStart), Error: err.Error()}
		return
	}
	resp.RelatedArticles = hits
	resp.NewsRetrieved = len(hits)
	resp.RAG = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(ragStart)}

	cardsStart := c.now()
	cards, err := c.generateCardsFor(ctx, hits, cardGenerationTopN)
	if err != nil {
		resp.Cards = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(cardsStart), Error: err.Error()}
		return
	}
	resp.GeneratedCards = cards
	resp.CardsGenerated = len(cards)
	resp.Cards = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(cardsStart)}
}

// runUnifiedComplete implements mode unified_complete: run C9 (which may
// invoke C3 → C4 → C5), then a C10-enriched answer, then optionally one C6
// card on the top-similarity article.
func (c *Coordinator) runUnifiedComplete(ctx context.Context, req Request, resp *Response) {
	chatStart := c.now()
	result, err := c.orchestrator.Run(ctx, orchestrator.Request{User: req.User, Session: req.Session, Message: req.Message})
	if err != nil {
		resp.Chat = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(chatStart), Error: err.Error()}
		return
	}
	if result.IngestResult != nil {
		resp.NewsRetrieved = result.IngestResult.Found
	}

	reply := result.Reply
	if c.convContext != nil {
		if rc, err := c.convContext.GetRelevantContext(ctx, req.User, req.Message, req.Session); err == nil {
			resp.MemoriesUsed = len(rc.Memories)
			reply = applyRelevantContext(reply, rc)
		}
	}
	resp.Reply = reply
	resp.Chat = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(chatStart)}

	hits, err := c.queryByText(ctx, req.Message, 1)
	if err != nil || len(hits) == 0 {
		resp.Cards = disabledFeature()
		return
	}
	cardsStart := c.now()
	cards, err := c.generateCardsFor(ctx, hits, 1)
	if err != nil {
		resp.Cards = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(cardsStart), Error: err.Error()}
		return
	}
	resp.GeneratedCards = cards
	resp.CardsGenerated = len(cards)
	resp.Cards = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(cardsStart)}
}

// runCustom implements mode custom: the caller selects which of {rag,
// cards, chat} run; they run concurrently where inputs permit, with cards
// depending on rag's output (spec.md §4.11).
func (c *Coordinator) runCustom(ctx context.Context, req Request, resp *Response) {
	var hits []types.ScoredArticle

	g, gctx := errgroup.WithContext(ctx)

	if req.Flags.Chat {
		g.Go(func() error {
			start := c.now()
			result, err := c.orchestrator.Run(gctx, orchestrator.Request{User: req.User, Session: req.Session, Message: req.Message})
			if err != nil {
				resp.Chat = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(start), Error: err.Error()}
				return nil
			}
			resp.Reply = result.Reply
			resp.Chat = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(start)}
			return nil
		})
	}

	if req.Flags.RAG || req.Flags.Cards {
		g.Go(func() error {
			start := c.now()
			found, err := c.queryByText(gctx, req.Message, ragQueryTopK)
			if err != nil {
				resp.RAG = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(start), Error: err.Error()}
				return nil
			}
			hits = found
			resp.RelatedArticles = found
			resp.NewsRetrieved = len(found)
			resp.RAG = FeatureResult{Enabled: req.Flags.RAG, Success: true, Time: c.now().Sub(start)}
			if !req.Flags.RAG {
				resp.RAG = disabledFeature()
			}
			return nil
		})
	}

	_ = g.Wait()

	if req.Flags.Cards {
		start := c.now()
		cards, err := c.generateCardsFor(ctx, hits, cardGenerationTopN)
		if err != nil {
			resp.Cards = FeatureResult{Enabled: true, Success: false, Time: c.now().Sub(start), Error: err.Error()}
		} else {
			resp.GeneratedCards = cards
			resp.CardsGenerated = len(cards)
			resp.Cards = FeatureResult{Enabled: true, Success: true, Time: c.now().Sub(start)}
		}
	}
}

func applyRelevantContext(reply string, rc *convcontext.RelevantContext) string {
	if rc == nil || len(rc.Memories) == 0 {
		return reply
	}
	var b strings.Builder
	b.WriteString(reply)
	b.WriteString("\n\n(personalized using ")
	b.WriteString(strings.Join(memoryBodies(rc.Memories), "; "))
	b.WriteString(")")
	return b.String()
}

func memoryBodies(memories []convcontext.ScoredMemory) []string {
	out := make([]string, 0, len(memories))
	for _, m := range memories {
		out = append(out, m.Memory.Body)
	}
	return out
}
