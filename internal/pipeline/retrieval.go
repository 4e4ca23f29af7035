package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// queryByText embeds text and queries the Vector Index for its top-K
// nearest articles (spec.md §4.5, §4.11 "C5 query on message").
func (c *Coordinator) queryByText(ctx context.Context, text string, topK int) ([]types.ScoredArticle, error) {
	if c.embed == nil || c.index == nil {
		return nil, nil
	}
	vectors, err := c.embed.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("pipeline: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return c.index.Query(ctx, vectors[0], topK)
}

// generateCardsFor loads each hit's Article and runs the Enrichment Engine
// over it, capped at n (spec.md §4.11 "C6 on top N articles"). A missing
// article or a failed fetch drops that hit silently (spec.md §7
// "Content-fetch errors drop the article silently").
func (c *Coordinator) generateCardsFor(ctx context.Context, hits []types.ScoredArticle, n int) ([]*types.Card, error) {
	if c.enrichment == nil || c.docs == nil {
		return nil, nil
	}
	if len(hits) > n {
		hits = hits[:n]
	}

	cards := make([]*types.Card, 0, len(hits))
	for _, hit := range hits {
		var article types.Article
		if err := c.docs.FindOne(ctx, ingestion.CollectionNews, interfaces.DocFilter{"_id": hit.ArticleID}, &article); err != nil {
			common.PipelineWarn(ctx, stageName, "card_article_missing", map[string]interface{}{"article_id": hit.ArticleID})
			continue
		}
		card, err := c.enrichment.GenerateCard(ctx, article, enrichment.Options{RAGEnhanced: true})
		if err != nil {
			common.PipelineWarn(ctx, stageName, "card_generation_failed", map[string]interface{}{"article_id": hit.ArticleID, "error": err.Error()})
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// composeRAGAnswer asks the chat port for an answer grounded in hits'
// article IDs and similarity scores (spec.md §4.11 "LM composes an answer
// grounded in retrieved articles").
func composeRAGAnswer(ctx context.Context, chat interfaces.ChatPort, message string, hits []types.ScoredArticle) string {
	if chat == nil {
		return ""
	}
	if len(hits) == 0 {
		return "I couldn't find any related news to ground an answer in."
	}

	var grounding strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&grounding, "- article %s (similarity %.2f)\n", h.ArticleID, h.Score)
	}

	resp, err := chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: "Answer the user's question using only the retrieved articles listed. Cite article IDs."},
		{Role: "user", Content: "Question: " + message + "\n\nRetrieved articles:\n" + grounding.String()},
	}, interfaces.ChatOptions{Temperature: 0.2, MaxTokens: 600})
	if err != nil {
		common.PipelineWarn(ctx, stageName, "rag_answer_failed", map[string]interface{}{"error": err.Error()})
		return "I found related news but couldn't compose an answer right now."
	}
	return resp.Content
}
