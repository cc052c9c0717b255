package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "flour", req.Input)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float64{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	vec, err := embedder.Embed(context.Background(), "flour")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), "flour")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = NewOpenAIEmbedder(Config{})
	assert.Error(t, err, "missing API key must be rejected")
}
