package ports

import "context"

// SemanticProvider scores the similarity of two strings in [0,1]. The
// concrete model is an external collaborator; implementations may suspend
// internally and must honor ctx cancellation.
type SemanticProvider interface {
	Similarity(ctx context.Context, text1, text2 string) (float64, error)
}

// EmbeddingProvider maps text to a dense vector. Backs cosine-similarity
// semantic providers.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GenerativeAssessment is a generative model's verdict on one
// requirement/capability pair.
type GenerativeAssessment struct {
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// GenerativeProvider asks an external generative service whether a
// capability can satisfy a requirement. Optional: when no provider is
// configured the generative layer is skipped and callers fall back to
// human review.
type GenerativeProvider interface {
	Analyze(ctx context.Context, requirement, capability, domainContext string) (GenerativeAssessment, error)
}
