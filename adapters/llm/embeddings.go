package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"supplymatch/ports"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder implements EmbeddingProvider over the embeddings endpoint
// of an OpenAI-compatible service.
type OpenAIEmbedder struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAIEmbedder creates an embedder from connection config.
func NewOpenAIEmbedder(config Config) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIEmbedder{
		APIKey:  config.APIKey,
		BaseURL: baseURL,
		Model:   defaultEmbeddingModel,
		Timeout: config.Timeout,
	}, nil
}

var _ ports.EmbeddingProvider = (*OpenAIEmbedder)(nil)

// Embed returns the embedding vector for the text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}
	raw, err := json.Marshal(reqBody{Model: e.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: e.Timeout}
	url := strings.TrimRight(e.BaseURL, "/") + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings http %d: %s", resp.StatusCode, string(respRaw))
	}

	type respBody struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing data")
	}
	return decoded.Data[0].Embedding, nil
}
