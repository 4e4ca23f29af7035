package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

func newTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 5, "completion_tokens": 5, "total_tokens": 10},
		})
	}))
}

func TestOpenAIChat_Chat(t *testing.T) {
	srv := newTestServer(t, "hello back")
	defer srv.Close()

	c, err := NewOpenAIChat(Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		ModelName: "gpt-4o-mini",
	})
	require.NoError(t, err)

	resp, err := c.Chat(context.Background(), []interfaces.ChatMessage{
		{Role: "user", Content: "hello"},
	}, interfaces.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, 10, resp.TokensUsed)
}

func TestNewOpenAIChat_MissingModelName(t *testing.T) {
	_, err := NewOpenAIChat(Config{BaseURL: "http://localhost:1", APIKey: "test-key"})
	assert.Error(t, err)
}
