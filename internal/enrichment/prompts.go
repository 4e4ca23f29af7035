package enrichment

import (
	"fmt"
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

// Each of these builds the focused, single-purpose prompt for one of the
// card engine's parallel sub-analyses (spec.md §4.6 "Structure"). Every
// prompt instructs the model to answer with one JSON object; the engine
// never trusts that instruction blindly (utils.UnmarshalLoose tolerates
// surrounding prose).

func articleContext(article types.Article) string {
	body := article.Body
	if len([]rune(body)) > 2000 {
		body = string([]rune(body)[:2000])
	}
	return fmt.Sprintf("Title: %s\nSource: %s\nDate: %s\nBody: %s", article.Title, article.Source, article.Date, body)
}

func withRAGContext(prompt, ragContext string) string {
	if ragContext == "" {
		return prompt
	}
	return prompt + "\n\nRelated news context (for cross-referencing):\n" + ragContext
}

func summaryPrompt(article types.Article, maxSummaryLength int, ragContext string) string {
	if maxSummaryLength <= 0 {
		maxSummaryLength = 200
	}
	base := fmt.Sprintf(`%s

Summarize the article above. Respond with one JSON object only:
{"summary": "<= %d characters", "enhanced_summary": "a slightly longer version with context",
 "key_points": ["..."], "keywords": ["..."], "hashtags": ["#..."],
 "audience": "general|expert|youth|...", "reading_time_minutes": <number>,
 "difficulty": "easy|medium|hard"}`, articleContext(article), maxSummaryLength)
	return withRAGContext(base, ragContext)
}

func sentimentPrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Analyze the sentiment of the article above. Respond with one JSON object only:
{"label": "positive|negative|neutral|mixed", "score": <-1.0 to 1.0>, "confidence": "low|medium|high"}`,
		articleContext(article))
	return withRAGContext(base, ragContext)
}

func themePrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Classify the primary and secondary themes of the article above. Respond with one JSON object only:
{"primary": "...", "secondary": ["..."], "confidence": <0.0 to 1.0>}`, articleContext(article))
	return withRAGContext(base, ragContext)
}

func importancePrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Assess how important this article is. Respond with one JSON object only:
{"score": <0.0 to 10.0>, "level": "critical|high|medium|low|minimal"}`, articleContext(article))
	return withRAGContext(base, ragContext)
}

func credibilityPrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Assess the credibility of this article and its source. Respond with one JSON object only:
{"score": <0.0 to 10.0>, "level": "verified|reliable|moderate|questionable|unverified"}`, articleContext(article))
	return withRAGContext(base, ragContext)
}

func entitiesPrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Extract named entities mentioned in the article above. Respond with one JSON object only:
{"entities": [{"name": "...", "type": "person|organization|location|other", "mention_count": <int>, "confidence": <0.0 to 1.0>}]}`,
		articleContext(article))
	return withRAGContext(base, ragContext)
}

func timelinessPrompt(article types.Article, ragContext string) string {
	base := fmt.Sprintf(`%s

Assess the time-sensitivity of this article. Respond with one JSON object only:
{"urgency": <0.0 to 1.0>, "freshness": <0.0 to 1.0>, "is_time_sensitive": <true|false>}`, articleContext(article))
	return withRAGContext(base, ragContext)
}

// trendAnalysisPrompt is the RAG-enhanced card engine's distinct trend
// analysis (SPEC_FULL.md supplemented feature 3, grounded in
// rag_enhanced_card_service.py's _analyze_trends).
func trendAnalysisPrompt(article types.Article, ragContext string) string {
	return fmt.Sprintf(`%s

Related news context:
%s

Given the article and the related news above, describe how this story fits
into the broader trend: is it escalating, de-escalating, or a new
development relative to the related coverage? Respond with one JSON object
only:
{"trend": "escalating|de-escalating|new_development|stable", "summary": "..."}`,
		articleContext(article), ragContext)
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}
