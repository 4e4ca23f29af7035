package enrichment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

type fakeChat struct {
	response string
	err      error
}

func (f *fakeChat) Chat(_ context.Context, _ []interfaces.ChatMessage, _ interfaces.ChatOptions) (*interfaces.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.ChatResponse{Content: f.response}, nil
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestGenerateCard_NormalizesChineseEnums(t *testing.T) {
	// One shared response serves every sub-analysis prompt; each result
	// struct reads the fields it recognizes. The shared string "confidence"
	// suits sentiment but cannot decode into the theme's numeric
	// confidence, so the theme analysis alone falls back with a warning.
	payload := map[string]interface{}{
		"summary": "s", "enhanced_summary": "s+", "key_points": []string{"a"},
		"keywords": []string{"AI"}, "hashtags": []string{"#ai"}, "audience": "general",
		"reading_time_minutes": 2.0, "difficulty": "简单",
		"label": "积极", "score": 8.5, "confidence": "高",
		"level": "极高", "primary": "tech", "secondary": []string{}, "urgency": 0.9,
		"freshness": 0.8, "is_time_sensitive": true, "entities": []interface{}{},
	}
	chat := &fakeChat{response: mustJSON(t, payload)}

	e := New(chat, nil, nil)
	e.now = func() time.Time { return time.Unix(1000, 0) }

	article := types.Article{ID: "a1", Title: "Big AI News", Body: "some body text", Keywords: []string{"AI"}}
	card, err := e.GenerateCard(context.Background(), article, Options{})
	require.NoError(t, err)

	assert.Equal(t, "card_a1_1000", card.ID)
	assert.Equal(t, types.SentimentPositive, card.Sentiment.Label)
	assert.Equal(t, types.ConfidenceHigh, card.Sentiment.Confidence)
	assert.Equal(t, types.ImportanceCritical, card.Importance.Level)
	assert.Equal(t, types.DifficultyEasy, card.Difficulty)
	assert.True(t, card.Timeliness.IsTimeSensitive)
	assert.Equal(t, []string{"theme"}, card.Generation.Warnings)
}

func TestGenerateCard_DegradesOnChatFailure(t *testing.T) {
	chat := &fakeChat{err: assertError("boom")}
	e := New(chat, nil, nil)

	article := types.Article{ID: "a2", Title: "Fallback Title", Body: "body"}
	card, err := e.GenerateCard(context.Background(), article, Options{})
	require.NoError(t, err)

	assert.Equal(t, types.SentimentNeutral, card.Sentiment.Label)
	assert.Equal(t, types.ImportanceMedium, card.Importance.Level)
	assert.Equal(t, types.CredibilityModerate, card.Credibility.Level)
	assert.NotEmpty(t, card.Generation.Warnings)
	assert.Equal(t, "Fallback Title", card.Summary)
}

type assertError string

func (e assertError) Error() string { return string(e) }
