package app

import (
	"context"
	"fmt"
	"time"

	"supplymatch/domain/core"
	"supplymatch/domain/matching"
	"supplymatch/internal"
	"supplymatch/internal/match"
	"supplymatch/ports"
)

// MatchService orchestrates the layered match pipeline over a domain's
// rules and providers. Layers are assembled per run so each request can
// choose its own mode.
type MatchService struct {
	registry   ports.RuleRegistry
	semantic   ports.SemanticProvider
	generative ports.GenerativeProvider

	nearMissThreshold int
	semanticThreshold float64
	workers           int
	domainContext     string
	logger            *internal.Logger
}

// MatchServiceConfig carries pipeline tuning into the service.
type MatchServiceConfig struct {
	NearMissThreshold int
	SemanticThreshold float64
	Workers           int
	DomainContext     string
}

// MatchRequest defines one matching run.
type MatchRequest struct {
	Domain       core.Domain
	Requirements []string
	Capabilities []string

	// DirectOnly restricts the run to exact/near string comparison,
	// skipping rules and external providers.
	DirectOnly bool
}

// MatchRun is the outcome of one matching run.
type MatchRun struct {
	Domain   core.Domain       `json:"domain"`
	Mode     string            `json:"mode"`
	Layers   []matching.Layer  `json:"layers"`
	Results  []matching.Result `json:"results"`
	Duration time.Duration     `json:"duration"`
}

// Matched returns only the results that found a match.
func (r *MatchRun) Matched() []matching.Result {
	var out []matching.Result
	for _, res := range r.Results {
		if res.Matched {
			out = append(out, res)
		}
	}
	return out
}

// NewMatchService creates a match service. The semantic and generative
// providers are optional; nil providers simply leave those layers out.
func NewMatchService(registry ports.RuleRegistry, semantic ports.SemanticProvider, generative ports.GenerativeProvider, cfg MatchServiceConfig, logger *internal.Logger) *MatchService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	if cfg.NearMissThreshold <= 0 {
		cfg.NearMissThreshold = match.DefaultNearMissThreshold
	}
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = match.DefaultSemanticThreshold
	}
	return &MatchService{
		registry:          registry,
		semantic:          semantic,
		generative:        generative,
		nearMissThreshold: cfg.NearMissThreshold,
		semanticThreshold: cfg.SemanticThreshold,
		workers:           cfg.Workers,
		domainContext:     cfg.DomainContext,
		logger:            logger.Named("match"),
	}
}

// Run scores every requirement against every capability and returns the
// merged per-pair results in requirement-major order.
func (s *MatchService) Run(ctx context.Context, req MatchRequest) (*MatchRun, error) {
	if len(req.Requirements) == 0 {
		return nil, fmt.Errorf("no requirements to match")
	}
	if len(req.Capabilities) == 0 {
		return nil, fmt.Errorf("no capabilities to match against")
	}

	pipeline := match.NewPipeline(s.layersFor(req), s.workers, s.logger)

	start := time.Now()
	results, err := pipeline.ScoreAll(ctx, req.Requirements, req.Capabilities)
	if err != nil {
		return nil, err
	}

	run := &MatchRun{
		Domain:   req.Domain.OrGeneral(),
		Mode:     mode(req.DirectOnly),
		Layers:   pipeline.Layers(),
		Results:  results,
		Duration: time.Since(start),
	}
	s.logger.Info("matched %d requirement(s) x %d capability(ies) in %s, %d hit(s)",
		len(req.Requirements), len(req.Capabilities), run.Duration, len(run.Matched()))
	return run, nil
}

func (s *MatchService) layersFor(req MatchRequest) []match.MatchLayer {
	layers := []match.MatchLayer{match.NewDirect(s.nearMissThreshold)}
	if req.DirectOnly {
		return layers
	}

	if s.registry != nil {
		layers = append(layers, match.NewHeuristic(s.registry, req.Domain.OrGeneral()))
	}
	if s.semantic != nil {
		layers = append(layers, match.NewSemantic(s.semantic, s.semanticThreshold))
	}
	if s.generative != nil {
		layers = append(layers, match.NewGenerative(s.generative, s.domainContext))
	}
	return layers
}

func mode(directOnly bool) string {
	if directOnly {
		return "direct"
	}
	return "full"
}
