package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RuleID      ID
	NodeID      ID
	SolutionID  ID
	ComponentID ID
	FacilityID  ID
)

// String conversions for domain IDs
func (id RuleID) String() string      { return ID(id).String() }
func (id NodeID) String() string      { return ID(id).String() }
func (id SolutionID) String() string  { return ID(id).String() }
func (id ComponentID) String() string { return ID(id).String() }
func (id FacilityID) String() string  { return ID(id).String() }

// ParseRuleID parses a string into RuleID
func ParseRuleID(s string) (RuleID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("rule ID cannot be empty")
	}
	return RuleID(s), nil
}

// ParseNodeID parses a string into NodeID
func ParseNodeID(s string) (NodeID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("node ID cannot be empty")
	}
	return NodeID(s), nil
}

// ParseSolutionID parses a string into SolutionID
func ParseSolutionID(s string) (SolutionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("solution ID cannot be empty")
	}
	return SolutionID(s), nil
}

// Domain tags a rule set or matching run with the vocabulary it belongs to
// (e.g. "manufacturing", "cooking"). Rules tagged DomainGeneral apply in
// any rule set.
type Domain string

const DomainGeneral Domain = "general"

// String returns the string representation
func (d Domain) String() string {
	return string(d)
}

// OrGeneral returns the domain, or DomainGeneral when unset
func (d Domain) OrGeneral() Domain {
	if strings.TrimSpace(string(d)) == "" {
		return DomainGeneral
	}
	return d
}
