package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
	"supplymatch/ports"
)

// solutionRepository implements the SolutionRepository interface
type solutionRepository struct {
	db *sqlx.DB
}

// NewSolutionRepository creates a new solution repository
func NewSolutionRepository(db *sqlx.DB) ports.SolutionRepository {
	return &solutionRepository{db: db}
}

// Save upserts a solution keyed by id
func (r *solutionRepository) Save(ctx context.Context, sol *supply.Solution) error {
	nodesJSON, err := json.Marshal(sol.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}
	tagsJSON, err := json.Marshal(sol.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	var expiresAt *time.Time
	if sol.ExpiresAt != nil {
		t := sol.ExpiresAt.Time()
		expiresAt = &t
	}

	query := `INSERT INTO solutions (id, nodes, tags, match_mode, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		nodes = EXCLUDED.nodes,
		tags = EXCLUDED.tags,
		match_mode = EXCLUDED.match_mode,
		expires_at = EXCLUDED.expires_at`

	_, err = r.db.ExecContext(ctx, query,
		sol.ID, nodesJSON, tagsJSON, sol.MatchMode, sol.CreatedAt.Time(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save solution: %w", err)
	}
	return nil
}

// Get retrieves a solution by its id
func (r *solutionRepository) Get(ctx context.Context, id core.SolutionID) (*supply.Solution, error) {
	query := `SELECT id, nodes, tags, COALESCE(match_mode, '') as match_mode, created_at, expires_at
	FROM solutions WHERE id = $1`

	sol, err := scanSolution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("solution", id.String())
		}
		return nil, err
	}
	return sol, nil
}

// List retrieves all solutions, newest first
func (r *solutionRepository) List(ctx context.Context) ([]*supply.Solution, error) {
	query := `SELECT id, nodes, tags, COALESCE(match_mode, '') as match_mode, created_at, expires_at
	FROM solutions ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	defer rows.Close()

	var solutions []*supply.Solution
	for rows.Next() {
		sol, err := scanSolution(rows)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate solutions: %w", err)
	}
	return solutions, nil
}

// Delete removes a solution by id
func (r *solutionRepository) Delete(ctx context.Context, id core.SolutionID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM solutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete solution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("solution", id.String())
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSolution(row rowScanner) (*supply.Solution, error) {
	var sol supply.Solution
	var nodesJSON, tagsJSON []byte
	var createdAt time.Time
	var expiresAt *time.Time

	err := row.Scan(&sol.ID, &nodesJSON, &tagsJSON, &sol.MatchMode, &createdAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan solution: %w", err)
	}

	if err := json.Unmarshal(nodesJSON, &sol.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &sol.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}

	sol.CreatedAt = core.NewTimestamp(createdAt)
	if expiresAt != nil {
		ts := core.NewTimestamp(*expiresAt)
		sol.ExpiresAt = &ts
	}
	return &sol, nil
}
