package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/ports"
)

// ruleSetRepository implements the RuleSetRepository interface
type ruleSetRepository struct {
	db *sqlx.DB
}

// NewRuleSetRepository creates a new rule set repository
func NewRuleSetRepository(db *sqlx.DB) ports.RuleSetRepository {
	return &ruleSetRepository{db: db}
}

// Save upserts a rule set keyed by domain
func (r *ruleSetRepository) Save(ctx context.Context, set *rules.RuleSet) error {
	rulesJSON, err := json.Marshal(set.Rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	query := `INSERT INTO rule_sets (domain, version, description, rules, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (domain) DO UPDATE SET
		version = EXCLUDED.version,
		description = EXCLUDED.description,
		rules = EXCLUDED.rules,
		updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		set.Domain, set.Version, set.Description, rulesJSON, set.UpdatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rule set: %w", err)
	}
	return nil
}

// Get retrieves the rule set for a domain
func (r *ruleSetRepository) Get(ctx context.Context, domain core.Domain) (*rules.RuleSet, error) {
	query := `SELECT domain, version, description, rules, updated_at
	FROM rule_sets WHERE domain = $1`

	set, err := scanRuleSet(r.db.QueryRowContext(ctx, query, domain))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("rule set", string(domain))
		}
		return nil, err
	}
	return set, nil
}

// List retrieves all rule sets, sorted by domain
func (r *ruleSetRepository) List(ctx context.Context) ([]*rules.RuleSet, error) {
	query := `SELECT domain, version, description, rules, updated_at
	FROM rule_sets ORDER BY domain`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule sets: %w", err)
	}
	defer rows.Close()

	var sets []*rules.RuleSet
	for rows.Next() {
		set, err := scanRuleSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule sets: %w", err)
	}
	return sets, nil
}

// Delete removes a domain's rule set
func (r *ruleSetRepository) Delete(ctx context.Context, domain core.Domain) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rule_sets WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete rule set: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("rule set", string(domain))
	}
	return nil
}

func scanRuleSet(row rowScanner) (*rules.RuleSet, error) {
	var set rules.RuleSet
	var rulesJSON []byte
	var updatedAt time.Time

	err := row.Scan(&set.Domain, &set.Version, &set.Description, &rulesJSON, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule set: %w", err)
	}

	if err := json.Unmarshal(rulesJSON, &set.Rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	set.UpdatedAt = core.NewTimestamp(updatedAt)
	return &set, nil
}
