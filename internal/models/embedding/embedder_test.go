package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dims)
			for j := range vec {
				vec[j] = float32(i+1) * 0.1
			}
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": vec,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv := newTestServer(t, 4)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		ModelName:  "text-embedding-3-small",
		Dimensions: 4,
	})
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Len(t, vectors[1], 4)
	assert.Equal(t, 4, e.Dimension())
	assert.Equal(t, "text-embedding-3-small", e.ModelName())
}

func TestOpenAIEmbedder_EmbedBatch_Empty(t *testing.T) {
	e, err := NewOpenAIEmbedder(Config{
		BaseURL:   "http://localhost:1",
		APIKey:    "test-key",
		ModelName: "text-embedding-3-small",
	})
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestNewOpenAIEmbedder_MissingModelName(t *testing.T) {
	_, err := NewOpenAIEmbedder(Config{BaseURL: "http://localhost:1", APIKey: "test-key"})
	assert.Error(t, err)
}
