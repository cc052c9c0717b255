package app

import (
	"context"
	"fmt"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
	"supplymatch/internal"
	"supplymatch/internal/graph"
	"supplymatch/internal/lifecycle"
	"supplymatch/ports"
)

// SolutionService owns the supply-tree side: building solutions from
// matched nodes, scheduling them, and managing their lifecycle. The
// repository is optional; without one solutions live only in the caller's
// hands.
type SolutionService struct {
	repo      ports.SolutionRepository
	lifecycle *lifecycle.Lifecycle
	logger    *internal.Logger
}

// NewSolutionService creates a solution service.
func NewSolutionService(repo ports.SolutionRepository, lc *lifecycle.Lifecycle, logger *internal.Logger) *SolutionService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	if lc == nil {
		lc = lifecycle.New(logger)
	}
	return &SolutionService{repo: repo, lifecycle: lc, logger: logger.Named("solution")}
}

// Build assembles a solution from tree nodes and rejects cyclic dependency
// data up front, so every stored solution is schedulable.
func (s *SolutionService) Build(ctx context.Context, nodes []supply.TreeNode, tags []string, matchMode string) (*supply.Solution, error) {
	g, err := graph.Build(nodes)
	if err != nil {
		return nil, err
	}
	if _, err := graph.Schedule(g); err != nil {
		return nil, err
	}

	sol := supply.NewSolution(nodes)
	sol.Tags = tags
	sol.MatchMode = matchMode

	if s.repo != nil {
		if err := s.repo.Save(ctx, sol); err != nil {
			return nil, fmt.Errorf("saving solution: %w", err)
		}
	}
	s.logger.Info("built solution %s with %d node(s)", sol.ID, len(nodes))
	return sol, nil
}

// Schedule computes the staged build order for a solution's nodes.
func (s *SolutionService) Schedule(sol *supply.Solution) ([][]core.NodeID, error) {
	g, err := graph.Build(sol.Nodes)
	if err != nil {
		return nil, err
	}
	return graph.Schedule(g)
}

// Hierarchy groups a solution's nodes into their component forest.
func (s *SolutionService) Hierarchy(sol *supply.Solution) *graph.Hierarchy {
	return graph.BuildHierarchy(sol)
}

// Get loads a solution by id.
func (s *SolutionService) Get(ctx context.Context, id core.SolutionID) (*supply.Solution, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("solution", id.String())
	}
	return s.repo.Get(ctx, id)
}

// List loads all stored solutions.
func (s *SolutionService) List(ctx context.Context) ([]*supply.Solution, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx)
}

// Delete removes a stored solution.
func (s *SolutionService) Delete(ctx context.Context, id core.SolutionID) error {
	if s.repo == nil {
		return core.NewNotFoundError("solution", id.String())
	}
	return s.repo.Delete(ctx, id)
}

// IsStale reports whether a solution is past the given maximum age or its
// own TTL.
func (s *SolutionService) IsStale(sol *supply.Solution, maxAgeDays *int) (bool, string) {
	return s.lifecycle.IsStale(sol, maxAgeDays)
}

// ExtendTTL pushes a solution's expiration out and persists the change.
func (s *SolutionService) ExtendTTL(ctx context.Context, id core.SolutionID, additionalDays int) (*supply.Solution, error) {
	sol, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.lifecycle.ExtendTTL(sol, additionalDays)
	if s.repo != nil {
		if err := s.repo.Save(ctx, sol); err != nil {
			return nil, fmt.Errorf("saving extended solution: %w", err)
		}
	}
	return sol, nil
}

// Cleanup removes stale stored solutions, or reports them on a dry run.
func (s *SolutionService) Cleanup(ctx context.Context, opts lifecycle.CleanupOptions) (lifecycle.CleanupResult, error) {
	all, err := s.List(ctx)
	if err != nil {
		return lifecycle.CleanupResult{}, err
	}
	return s.lifecycle.Cleanup(ctx, s.repo, all, opts)
}
