package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"supplymatch/ports"
)

const defaultMaxTokens = 512

// GenerativeProviderAdapter answers requirement/capability questions through
// a chat-completion model. The model is asked for a strict JSON verdict;
// anything else is an error, never a silent match.
type GenerativeProviderAdapter struct {
	client LLMClient
	model  string
}

// NewGenerativeProvider creates a provider over an OpenAI-compatible endpoint.
func NewGenerativeProvider(config Config) (*GenerativeProviderAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	return &GenerativeProviderAdapter{client: client, model: config.Model}, nil
}

// NewGenerativeProviderWithClient creates a provider over an existing client.
// Used with MockLLMClient in tests.
func NewGenerativeProviderWithClient(client LLMClient, model string) *GenerativeProviderAdapter {
	return &GenerativeProviderAdapter{client: client, model: model}
}

var _ ports.GenerativeProvider = (*GenerativeProviderAdapter)(nil)

// Analyze asks the model whether the capability can satisfy the requirement.
func (p *GenerativeProviderAdapter) Analyze(ctx context.Context, requirement, capability, domainContext string) (ports.GenerativeAssessment, error) {
	prompt := buildPrompt(requirement, capability, domainContext)

	raw, err := p.client.ChatCompletion(ctx, p.model, prompt, defaultMaxTokens)
	if err != nil {
		return ports.GenerativeAssessment{}, fmt.Errorf("generative analysis failed: %w", err)
	}

	assessment, err := parseAssessment(raw)
	if err != nil {
		return ports.GenerativeAssessment{}, fmt.Errorf("generative analysis returned unusable output: %w", err)
	}
	return assessment, nil
}

func buildPrompt(requirement, capability, domainContext string) string {
	var b strings.Builder
	b.WriteString("Decide whether a production capability can satisfy a requirement.\n\n")
	if domainContext != "" {
		fmt.Fprintf(&b, "Domain context: %s\n", domainContext)
	}
	fmt.Fprintf(&b, "Requirement: %q\n", requirement)
	fmt.Fprintf(&b, "Capability: %q\n\n", capability)
	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"matched": <bool>, "confidence": <number in [0,1]>, "reasoning": "<one sentence>"}`)
	return b.String()
}

// parseAssessment extracts and validates the JSON verdict. Models sometimes
// wrap JSON in code fences or prose; only the first object is considered.
func parseAssessment(raw string) (ports.GenerativeAssessment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ports.GenerativeAssessment{}, fmt.Errorf("no JSON object in response: %q", truncate(raw, 120))
	}

	var assessment ports.GenerativeAssessment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &assessment); err != nil {
		return ports.GenerativeAssessment{}, fmt.Errorf("parsing verdict: %w", err)
	}
	if assessment.Confidence < 0 || assessment.Confidence > 1 {
		return ports.GenerativeAssessment{}, fmt.Errorf("confidence %.4f outside [0,1]", assessment.Confidence)
	}
	return assessment, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
