package lifecycle

import (
	"context"
	"fmt"
	"time"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
	"supplymatch/internal"
	"supplymatch/ports"
)

// CleanupOptions selects solutions for removal. Nil criteria are ignored;
// a solution qualifies when it is stale under MaxAgeDays, past its own
// TTL, or created before Before.
type CleanupOptions struct {
	MaxAgeDays *int       `json:"max_age_days,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	DryRun     bool       `json:"dry_run"`
}

// CleanupResult reports which solutions were (or would be) removed.
type CleanupResult struct {
	Count  int               `json:"count"`
	IDs    []core.SolutionID `json:"ids"`
	DryRun bool              `json:"dry_run"`
}

// Lifecycle evaluates staleness and TTL policy for persisted solutions.
type Lifecycle struct {
	clock  func() time.Time
	logger *internal.Logger
}

// New creates a lifecycle manager using the wall clock.
func New(logger *internal.Logger) *Lifecycle {
	return NewWithClock(logger, time.Now)
}

// NewWithClock creates a lifecycle manager with an injected clock.
func NewWithClock(logger *internal.Logger, clock func() time.Time) *Lifecycle {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Lifecycle{clock: clock, logger: logger.Named("lifecycle")}
}

// Age returns how long ago the solution was created.
func (l *Lifecycle) Age(sol *supply.Solution) time.Duration {
	return l.clock().Sub(sol.CreatedAt.Time())
}

// IsStale reports whether the solution is past a caller-supplied maximum
// age (when given) or past its own TTL, with a human-readable reason.
func (l *Lifecycle) IsStale(sol *supply.Solution, maxAgeDays *int) (bool, string) {
	now := l.clock()

	if maxAgeDays != nil {
		maxAge := time.Duration(*maxAgeDays) * 24 * time.Hour
		if age := now.Sub(sol.CreatedAt.Time()); age > maxAge {
			return true, fmt.Sprintf("age %s exceeds maximum %d day(s)", age.Round(time.Minute), *maxAgeDays)
		}
	}
	if sol.ExpiresAt != nil && now.After(sol.ExpiresAt.Time()) {
		return true, fmt.Sprintf("expired at %s", sol.ExpiresAt)
	}
	return false, ""
}

// ExtendTTL pushes the solution's expiration out by the given number of
// days, counting from the current expiration, or from now when the
// solution has no TTL yet.
func (l *Lifecycle) ExtendTTL(sol *supply.Solution, additionalDays int) {
	base := l.clock()
	if sol.ExpiresAt != nil {
		base = sol.ExpiresAt.Time()
	}
	expires := core.NewTimestamp(base.Add(time.Duration(additionalDays) * 24 * time.Hour))
	sol.ExpiresAt = &expires
}

// Cleanup selects solutions matching the criteria and either reports them
// (dry run) or deletes them through the repository. The affected ids are
// returned either way. A nil repository forces report-only behavior.
func (l *Lifecycle) Cleanup(ctx context.Context, repo ports.SolutionRepository, all []*supply.Solution, opts CleanupOptions) (CleanupResult, error) {
	result := CleanupResult{DryRun: opts.DryRun}

	for _, sol := range all {
		stale, reason := l.IsStale(sol, opts.MaxAgeDays)
		if !stale && opts.Before != nil && sol.CreatedAt.Time().Before(*opts.Before) {
			stale = true
			reason = fmt.Sprintf("created before %s", opts.Before.Format(time.RFC3339))
		}
		if !stale {
			continue
		}

		result.IDs = append(result.IDs, sol.ID)
		result.Count++
		if opts.DryRun || repo == nil {
			l.logger.Info("solution %s is stale (%s), dry run", sol.ID, reason)
			continue
		}
		if err := repo.Delete(ctx, sol.ID); err != nil {
			return result, fmt.Errorf("deleting solution %s: %w", sol.ID, err)
		}
		l.logger.Info("deleted stale solution %s (%s)", sol.ID, reason)
	}

	return result, nil
}
