package orchestrator

import (
	"context"
	"strings"

	"github.com/sjq0098/news-mosaic-go/internal/common"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

const classifyPrompt = "Classify the user's message into exactly one of these four Chinese labels: " +
	"准确搜索 (a specific, precise search request), 含糊搜索 (a vague request for news), " +
	"兴趣调整 (add/remove/query personal interest tags), 其它 (anything else). " +
	"Reply with only the label, nothing else."

// classifyIntent implements the classify_intent node (spec.md §4.9):
// a single strict-prompt LM call, defaulting to IntentOther on any
// unrecognized or failed response.
func (o *Orchestrator) classifyIntent(ctx context.Context, message string, history []types.Turn) types.IntentClass {
	messages := []interfaces.ChatMessage{{Role: "system", Content: classifyPrompt}}
	messages = append(messages, historyToMessages(history)...)
	messages = append(messages, interfaces.ChatMessage{Role: "user", Content: message})

	resp, err := o.chat.Chat(ctx, messages, interfaces.ChatOptions{Temperature: 0, MaxTokens: 20})
	if err != nil {
		common.PipelineWarn(ctx, stageName, "classify_intent_failed", map[string]interface{}{"error": err.Error()})
		return types.IntentOther
	}
	return types.ParseIntentClass(strings.TrimSpace(resp.Content))
}

func historyToMessages(history []types.Turn) []interfaces.ChatMessage {
	out := make([]interfaces.ChatMessage, 0, len(history)*2)
	for _, t := range history {
		out = append(out,
			interfaces.ChatMessage{Role: "user", Content: t.User},
			interfaces.ChatMessage{Role: "assistant", Content: t.Assistant},
		)
	}
	return out
}

const extractKeywordsPrompt = "Extract up to 3 comma-separated search keywords from the message, " +
	"followed by a pipe and a time window from {1d, 1w, 1m, 1y}. " +
	"Reply in exactly this shape: \"kw1,kw2,kw3|1w\". If unsure of the window, use 1w."

// extractKeywords implements the extract_keywords node (spec.md §4.9): a
// single LM call returning "kw1,kw2,...|time_window", keywords capped at 3
// and the window validated against the closed set, defaulting to 1w.
func (o *Orchestrator) extractKeywords(ctx context.Context, message string) ([]string, types.TimeWindow) {
	resp, err := o.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: extractKeywordsPrompt},
		{Role: "user", Content: message},
	}, interfaces.ChatOptions{Temperature: 0, MaxTokens: 60})
	if err != nil {
		common.PipelineWarn(ctx, stageName, "extract_keywords_failed", map[string]interface{}{"error": err.Error()})
		return fallbackKeywords(message), types.Window1Week
	}
	return parseKeywordsAndWindow(resp.Content, message)
}

func parseKeywordsAndWindow(raw, fallbackMessage string) ([]string, types.TimeWindow) {
	parts := strings.SplitN(strings.TrimSpace(raw), "|", 2)
	keywordPart := parts[0]

	keywords := make([]string, 0, maxKeywords)
	for _, kw := range strings.Split(keywordPart, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
		if len(keywords) == maxKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		keywords = fallbackKeywords(fallbackMessage)
	}

	window := types.Window1Week
	if len(parts) == 2 {
		candidate := types.TimeWindow(strings.TrimSpace(parts[1]))
		if candidate.Valid() {
			window = candidate
		}
	}
	return keywords, window
}

func fallbackKeywords(message string) []string {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if len(message) > 40 {
		message = message[:40]
	}
	return []string{message}
}

// searchPrecise implements the search_precise node (spec.md §4.9): extracted
// keywords are added to the Interest Store, then the Ingestion Engine runs
// with the derived time window mapped to an expire-days budget.
func (o *Orchestrator) searchPrecise(ctx context.Context, user, scope string, keywords []string, window types.TimeWindow) (*types.IngestResult, error) {
	if len(keywords) > 0 {
		if _, err := o.interests.Add(ctx, user, keywords); err != nil {
			common.PipelineWarn(ctx, stageName, "search_precise_interest_add_failed", map[string]interface{}{"error": err.Error()})
		}
	}

	expireDays := windowToExpireDays[window]
	if expireDays == 0 {
		expireDays = 7
	}

	req := types.SearchRequest{
		Scope:      scope,
		Keywords:   keywords,
		Count:      preciseSearchCount,
		Window:     window,
		ExpireDays: expireDays,
	}
	req.ClampCount()
	result, err := o.ingestion.Ingest(ctx, req)
	if o.audit != nil {
		found := 0
		if result != nil {
			found = result.Found
		}
		o.audit.RecordSearch(ctx, user, req, found)
	}
	return result, err
}

const generalKeywordsPrompt = "Suggest 2 to 3 broad news topics worth searching for today, comma-separated, " +
	"followed by a pipe and a time window from {1d, 1w, 1m, 1y}. Reply in exactly this shape: \"topic1,topic2|1d\"."

// searchGeneral implements the search_general node (spec.md §4.9): asks the
// LM for broad "today" topics, then ingests a larger result count.
func (o *Orchestrator) searchGeneral(ctx context.Context, user, scope string) (*types.IngestResult, error) {
	resp, err := o.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: generalKeywordsPrompt},
	}, interfaces.ChatOptions{Temperature: 0.3, MaxTokens: 60})

	var keywords []string
	window := types.Window1Day
	if err != nil {
		common.PipelineWarn(ctx, stageName, "search_general_keywords_failed", map[string]interface{}{"error": err.Error()})
		keywords = []string{"top news"}
	} else {
		keywords, window = parseKeywordsAndWindow(resp.Content, "top news")
	}

	expireDays := windowToExpireDays[window]
	if expireDays == 0 {
		expireDays = 1
	}

	req := types.SearchRequest{
		Scope:      scope,
		Keywords:   keywords,
		Count:      generalSearchCount,
		Window:     window,
		ExpireDays: expireDays,
	}
	req.ClampCount()
	result, err := o.ingestion.Ingest(ctx, req)
	if o.audit != nil {
		found := 0
		if result != nil {
			found = result.Found
		}
		o.audit.RecordSearch(ctx, user, req, found)
	}
	return result, err
}

const handleOtherPrompt = "Reply helpfully and briefly to the user's message. " +
	"You are a news assistant; if the message is unrelated to news, gently redirect."

// handleOther implements the handle_other node (spec.md §4.9): a direct,
// unstructured LM reply for anything outside the three recognized intents.
func (o *Orchestrator) handleOther(ctx context.Context, message string, history []types.Turn) string {
	messages := []interfaces.ChatMessage{{Role: "system", Content: handleOtherPrompt}}
	messages = append(messages, historyToMessages(history)...)
	messages = append(messages, interfaces.ChatMessage{Role: "user", Content: message})

	resp, err := o.chat.Chat(ctx, messages, interfaces.ChatOptions{Temperature: 0.5, MaxTokens: 400})
	if err != nil {
		common.PipelineWarn(ctx, stageName, "handle_other_failed", map[string]interface{}{"error": err.Error()})
		return "I'm not sure how to help with that right now."
	}
	return resp.Content
}
