package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRuleNotFound     = fmt.Errorf("%w: rule", ErrNotFound)
	ErrDomainNotFound   = fmt.Errorf("%w: domain", ErrNotFound)
	ErrSolutionNotFound = fmt.Errorf("%w: solution", ErrNotFound)

	// Validation errors
	ErrValidation      = errors.New("validation failed")
	ErrEmptyCapability = fmt.Errorf("%w: capability is empty", ErrValidation)
	ErrEmptySatisfies  = fmt.Errorf("%w: satisfies_requirements is empty", ErrValidation)
	ErrConfidenceRange = fmt.Errorf("%w: confidence outside [0,1]", ErrValidation)
	ErrDomainMismatch  = fmt.Errorf("%w: rule domain does not match rule set domain", ErrValidation)

	// Conflict errors
	ErrRuleExists     = errors.New("rule already exists")
	ErrImportConflict = errors.New("import validation failed, rolled back")

	// Graph errors
	ErrCycle = errors.New("dependency cycle detected")

	// Layer errors
	ErrLayerUnavailable = errors.New("match layer not configured")
)

// ValidationIssue records a single field-level validation failure. Batch
// operations collect issues per rule instead of aborting the whole batch.
type ValidationIssue struct {
	RuleID RuleID `json:"rule_id,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v ValidationIssue) Error() string {
	if v.RuleID != "" {
		return fmt.Sprintf("rule %s: %s: %s", v.RuleID, v.Field, v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

func (v ValidationIssue) Unwrap() error {
	return ErrValidation
}

// CycleError reports the node ids involved in a dependency cycle so the
// caller can diagnose the malformed input. Always fatal to the requested
// build/schedule operation.
type CycleError struct {
	Nodes []NodeID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		ids[i] = n.String()
	}
	return fmt.Sprintf("dependency cycle detected involving nodes [%s]", strings.Join(ids, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// ImportError carries the per-rule validation failures that caused a
// transactional import to roll back.
type ImportError struct {
	Domain Domain
	Issues []ValidationIssue
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import into domain %q failed with %d validation issue(s), state rolled back", e.Domain, len(e.Issues))
}

func (e *ImportError) Unwrap() error {
	return ErrImportConflict
}

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationIssue(ruleID RuleID, field, reason string) ValidationIssue {
	return ValidationIssue{RuleID: ruleID, Field: field, Reason: reason}
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsCycleError(err error) bool {
	return errors.Is(err, ErrCycle)
}

func IsImportConflict(err error) bool {
	return errors.Is(err, ErrImportConflict)
}
