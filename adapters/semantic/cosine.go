// Package semantic provides similarity scoring over embedding vectors.
package semantic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"supplymatch/ports"
)

// CosineProvider scores similarity as the cosine of two embedding vectors,
// clamped to [0,1]. Embeddings come from an injected provider so the same
// scoring works over any model.
type CosineProvider struct {
	embedder ports.EmbeddingProvider
}

// NewCosineProvider creates a cosine similarity provider over an embedder.
func NewCosineProvider(embedder ports.EmbeddingProvider) *CosineProvider {
	return &CosineProvider{embedder: embedder}
}

var _ ports.SemanticProvider = (*CosineProvider)(nil)

// Similarity embeds both texts and returns their cosine similarity.
func (p *CosineProvider) Similarity(ctx context.Context, text1, text2 string) (float64, error) {
	v1, err := p.embedder.Embed(ctx, text1)
	if err != nil {
		return 0, fmt.Errorf("embedding %q: %w", text1, err)
	}
	v2, err := p.embedder.Embed(ctx, text2)
	if err != nil {
		return 0, fmt.Errorf("embedding %q: %w", text2, err)
	}
	return Cosine(v1, v2)
}

// Cosine computes cosine similarity clamped to [0,1]. Negative cosines map
// to zero; opposed vectors are simply "not similar" for matching purposes.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty embedding")
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := floats.Dot(a, b) / (normA * normB)
	return math.Max(0, math.Min(1, cos)), nil
}

// StaticEmbeddings is a table-backed embedder for tests and offline use.
// Lookup is case-insensitive on trimmed text.
type StaticEmbeddings struct {
	vectors map[string][]float64
}

// NewStaticEmbeddings creates an embedder over a fixed vector table.
func NewStaticEmbeddings(vectors map[string][]float64) *StaticEmbeddings {
	normalized := make(map[string][]float64, len(vectors))
	for text, vec := range vectors {
		normalized[normalizeKey(text)] = vec
	}
	return &StaticEmbeddings{vectors: normalized}
}

var _ ports.EmbeddingProvider = (*StaticEmbeddings)(nil)

// Embed returns the table vector for the text.
func (s *StaticEmbeddings) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec, ok := s.vectors[normalizeKey(text)]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return vec, nil
}

func normalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
