package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
	"github.com/sjq0098/news-mosaic-go/internal/utils"
)

const stageName = "Enrichment"

// CollectionCards is the persisted-card store (spec.md §6), written by
// background card-generation tasks rather than by the engine itself — the
// engine only produces the *types.Card value.
const CollectionCards = "cards"

// Options tunes one GenerateCard call (spec.md §4.6).
type Options struct {
	MaxSummaryLength int
	RAGEnhanced      bool
}

// Engine implements the Enrichment/Card Engine (spec.md §4.6). It holds
// only leaf port handles (chat, embed, index) — never the pipeline
// coordinator — breaking the cyclic reference spec.md §9 calls out: the
// coordinator arranges "embed before enrich" when both are requested, and
// the Vector Index is populated before this engine ever queries it.
type Engine struct {
	chat  interfaces.ChatPort
	embed interfaces.EmbeddingPort
	index interfaces.VectorIndexPort
	now   func() time.Time
}

// New creates an Engine over chat, embed, and index ports. embed/index may
// be nil if RAG-enhanced mode is never requested.
func New(chat interfaces.ChatPort, embed interfaces.EmbeddingPort, index interfaces.VectorIndexPort) *Engine {
	return &Engine{chat: chat, embed: embed, index: index, now: time.Now}
}

// summaryResult is the parsed shape of the combined
// summary+key-points+keywords+hashtags+audience+reading-time+difficulty
// analysis (spec.md §4.6 "Structure").
type summaryResult struct {
	Summary         string   `json:"summary"`
	EnhancedSummary string   `json:"enhanced_summary"`
	KeyPoints       []string `json:"key_points"`
	Keywords        []string `json:"keywords"`
	Hashtags        []string `json:"hashtags"`
	Audience        string   `json:"audience"`
	ReadingTime     float64  `json:"reading_time_minutes"`
	Difficulty      string   `json:"difficulty"`
}

type sentimentResult struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`
}

type themeResult struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"`
}

type importanceResult struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

type credibilityResult struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

type entitiesResult struct {
	Entities []struct {
		Name         string  `json:"name"`
		Type         string  `json:"type"`
		MentionCount int     `json:"mention_count"`
		Confidence   float64 `json:"confidence"`
	} `json:"entities"`
}

type timelinessResult struct {
	Urgency         float64 `json:"urgency"`
	Freshness       float64 `json:"freshness"`
	IsTimeSensitive bool    `json:"is_time_sensitive"`
}

type trendResult struct {
	Trend   string `json:"trend"`
	Summary string `json:"summary"`
}

// callJSON sends prompt to the chat port and unmarshals the (possibly
// prose-wrapped) JSON response into out, returning an error the caller is
// expected to degrade to a default on (spec.md §4.6, §7).
func (e *Engine) callJSON(ctx context.Context, prompt string, out interface{}) error {
	resp, err := e.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: "You are a news analysis assistant. Respond with JSON only."},
		{Role: "user", Content: prompt},
	}, interfaces.ChatOptions{Temperature: 0.2, MaxTokens: 800})
	if err != nil {
		return fmt.Errorf("chat call failed: %w", err)
	}
	if err := utils.UnmarshalLoose(resp.Content, out); err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	return nil
}

// GenerateCard runs the card engine's sub-analyses — concurrently where
// spec.md §5(a) calls for it — normalizes every free-form enum, and
// assembles the resulting Card. Generation never fails to the caller: any
// sub-analysis exception is replaced by its deterministic default and
// recorded as a warning (spec.md §4.6, §7).
func (e *Engine) GenerateCard(ctx context.Context, article types.Article, opts Options) (*types.Card, error) {
	start := e.now()
	card := &types.Card{
		ID:        fmt.Sprintf("card_%s_%d", article.ID, start.Unix()),
		ArticleID: article.ID,
	}

	ragCtxStr := ""
	var rag *ragContext
	if opts.RAGEnhanced && e.embed != nil && e.index != nil {
		var err error
		rag, err = e.buildRAGContext(ctx, article)
		if err != nil {
			common.PipelineWarn(ctx, stageName, "rag_context_failed", map[string]interface{}{"error": err.Error()})
		} else {
			ragCtxStr = rag.Summary
			card.RelatedArticleIDs = rag.RelatedIDs
			card.SimilarityScores = rag.Scores
			card.RAGContext = rag.Summary
		}
	}

	var warnMu sync.Mutex
	var warnings []string
	addWarning := func(label string) {
		warnMu.Lock()
		warnings = append(warnings, label)
		warnMu.Unlock()
	}

	var summary summaryResult
	var sentiment types.Sentiment
	var theme types.Theme
	var importance types.Importance
	var credibility types.Credibility
	var entities []types.Entity
	var timeliness types.Timeliness
	var trend *trendResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var r summaryResult
		if err := e.callJSON(gctx, summaryPrompt(article, opts.MaxSummaryLength, ragCtxStr), &r); err != nil {
			addWarning("summary")
			r = defaultSummary(article)
		}
		summary = r
		return nil
	})
	g.Go(func() error {
		var r sentimentResult
		if err := e.callJSON(gctx, sentimentPrompt(article, ragCtxStr), &r); err != nil {
			addWarning("sentiment")
			sentiment = defaultSentiment()
			return nil
		}
		sentiment = types.Sentiment{
			Label:      NormalizeSentimentLabel(r.Label),
			Score:      r.Score,
			Confidence: NormalizeConfidence(r.Confidence),
		}
		return nil
	})
	g.Go(func() error {
		var r themeResult
		if err := e.callJSON(gctx, themePrompt(article, ragCtxStr), &r); err != nil {
			addWarning("theme")
			theme = defaultTheme()
			return nil
		}
		theme = types.Theme{Primary: r.Primary, Secondary: r.Secondary, Confidence: r.Confidence}
		return nil
	})
	g.Go(func() error {
		var r importanceResult
		if err := e.callJSON(gctx, importancePrompt(article, ragCtxStr), &r); err != nil {
			addWarning("importance")
			importance = defaultImportance()
			return nil
		}
		importance = types.Importance{Score: r.Score, Level: NormalizeImportanceLevel(r.Level)}
		return nil
	})
	g.Go(func() error {
		var r credibilityResult
		if err := e.callJSON(gctx, credibilityPrompt(article, ragCtxStr), &r); err != nil {
			addWarning("credibility")
			credibility = defaultCredibility()
			return nil
		}
		credibility = types.Credibility{Score: r.Score, Level: NormalizeCredibilityLevel(r.Level)}
		return nil
	})
	g.Go(func() error {
		var r entitiesResult
		if err := e.callJSON(gctx, entitiesPrompt(article, ragCtxStr), &r); err != nil {
			addWarning("entities")
			entities = defaultEntities()
			return nil
		}
		out := make([]types.Entity, 0, len(r.Entities))
		for _, en := range r.Entities {
			out = append(out, types.Entity{
				Name: en.Name, Type: NormalizeEntityType(en.Type),
				MentionCount: en.MentionCount, Confidence: en.Confidence,
			})
		}
		entities = out
		return nil
	})
	g.Go(func() error {
		var r timelinessResult
		if err := e.callJSON(gctx, timelinessPrompt(article, ragCtxStr), &r); err != nil {
			addWarning("timeliness")
			timeliness = defaultTimeliness()
			return nil
		}
		timeliness = types.Timeliness{Urgency: r.Urgency, Freshness: r.Freshness, IsTimeSensitive: r.IsTimeSensitive}
		return nil
	})
	if opts.RAGEnhanced && rag != nil {
		g.Go(func() error {
			var r trendResult
			if err := e.callJSON(gctx, trendAnalysisPrompt(article, ragCtxStr), &r); err != nil {
				addWarning("trend")
				return nil
			}
			trend = &r
			return nil
		})
	}

	_ = g.Wait() // sub-analysis errors are captured per-goroutine, never propagated (spec.md §4.6, §7)

	difficulty := NormalizeDifficultyLevel(summary.Difficulty)
	if summary.Difficulty == "" {
		difficulty = types.DifficultyMedium
	}

	card.Summary = summary.Summary
	card.EnhancedSummary = summary.EnhancedSummary
	card.KeyPoints = summary.KeyPoints
	card.Keywords = summary.Keywords
	card.Hashtags = summary.Hashtags
	card.Audience = summary.Audience
	card.ReadingTime = summary.ReadingTime
	card.Difficulty = difficulty
	card.Sentiment = sentiment
	card.Theme = theme
	card.Importance = importance
	card.Credibility = credibility
	card.Entities = entities
	card.Timeliness = timeliness
	card.ClampScores()

	if trend != nil {
		if card.RAGContext != "" {
			card.RAGContext += "\ntrend: " + trend.Trend + " — " + trend.Summary
		} else {
			card.RAGContext = "trend: " + trend.Trend + " — " + trend.Summary
		}
	}

	card.Generation = types.GenerationMetadata{
		GeneratedAt:    start,
		GenerationTime: e.now().Sub(start),
		RAGEnhanced:    opts.RAGEnhanced && rag != nil,
		Warnings:       warnings,
		DegradedFields: warnings,
	}

	return card, nil
}

