package ruleio

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
)

// Format selects the on-disk encoding of a rule-set file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the encoding from a file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ruleDoc is the wire form of a capability rule. Timestamps are not part of
// the serialized form; they are assigned on load.
type ruleDoc struct {
	ID                    string   `yaml:"id" json:"id"`
	Type                  string   `yaml:"type,omitempty" json:"type,omitempty"`
	Capability            string   `yaml:"capability" json:"capability"`
	SatisfiesRequirements []string `yaml:"satisfies_requirements" json:"satisfies_requirements"`
	Confidence            float64  `yaml:"confidence" json:"confidence"`
	Domain                string   `yaml:"domain,omitempty" json:"domain,omitempty"`
	Direction             string   `yaml:"direction,omitempty" json:"direction,omitempty"`
	Tags                  []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// domainDoc is the wire form of one domain's rule set. Rules are keyed by
// rule id; the id field inside each entry is optional and defaults to the
// key.
type domainDoc struct {
	Version     string             `yaml:"version,omitempty" json:"version,omitempty"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       map[string]ruleDoc `yaml:"rules" json:"rules"`
}

// fileDoc is the top-level wire form. A file either carries a domains map
// or, as shorthand, a single domain's fields at the top level.
type fileDoc struct {
	Version     string               `yaml:"version,omitempty" json:"version,omitempty"`
	Domains     map[string]domainDoc `yaml:"domains,omitempty" json:"domains,omitempty"`
	Domain      string               `yaml:"domain,omitempty" json:"domain,omitempty"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       map[string]ruleDoc   `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// DecodeRuleSets parses rule-set data, skipping invalid rules. Each invalid
// rule contributes validation issues; the valid remainder still loads. The
// error return is reserved for undecodable input.
func DecodeRuleSets(data []byte, format Format) ([]*rules.RuleSet, []core.ValidationIssue, error) {
	var doc fileDoc
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parsing JSON rule set: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parsing YAML rule set: %w", err)
		}
	}

	sections := doc.Domains
	if len(sections) == 0 {
		if len(doc.Rules) == 0 {
			return nil, nil, nil
		}
		// Single-domain shorthand: rule-set fields at the top level.
		sections = map[string]domainDoc{
			doc.Domain: {Version: doc.Version, Description: doc.Description, Rules: doc.Rules},
		}
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []*rules.RuleSet
	var issues []core.ValidationIssue
	for _, name := range names {
		section := sections[name]
		version := section.Version
		if version == "" {
			version = doc.Version
		}
		set := rules.NewRuleSet(core.Domain(name), version)
		set.Description = section.Description

		keys := make([]string, 0, len(section.Rules))
		for key := range section.Rules {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			rd := section.Rules[key]
			id := core.RuleID(rd.ID)
			if id == "" {
				id = core.RuleID(key)
			}
			domain := core.Domain(rd.Domain)
			if domain == "" {
				domain = set.Domain
			}
			rule, err := rules.NewCapabilityRule(id, rd.Capability, rd.SatisfiesRequirements, rd.Confidence, domain, rules.Direction(rd.Direction), rd.Tags)
			if err != nil {
				issues = append(issues, ruleIssues(id, err)...)
				continue
			}
			if err := set.Add(rule); err != nil {
				issues = append(issues, core.NewValidationIssue(rule.ID, "domain", err.Error()))
				continue
			}
		}
		sets = append(sets, set)
	}
	return sets, issues, nil
}

// EncodeRuleSet serializes a rule set. Encoding the same set twice
// yields identical bytes.
func EncodeRuleSet(set *rules.RuleSet, format Format) ([]byte, error) {
	doc := fileDoc{
		Version:     set.Version,
		Domain:      string(set.Domain),
		Description: set.Description,
		Rules:       ruleDocs(set),
	}
	return encode(doc, format)
}

// EncodeRuleSets serializes multiple rule sets under a domains map, with
// domains and rules in sorted order.
func EncodeRuleSets(sets []*rules.RuleSet, format Format) ([]byte, error) {
	doc := fileDoc{Domains: make(map[string]domainDoc, len(sets))}
	for _, set := range sets {
		doc.Domains[string(set.Domain)] = domainDoc{
			Version:     set.Version,
			Description: set.Description,
			Rules:       ruleDocs(set),
		}
	}
	return encode(doc, format)
}

// Fingerprint digests a rule set's canonical JSON encoding. Two sets with
// the same rules, version and description share a fingerprint regardless
// of insertion order or timestamps.
func Fingerprint(set *rules.RuleSet) (core.Hash, error) {
	data, err := EncodeRuleSet(set, FormatJSON)
	if err != nil {
		return "", err
	}
	return core.NewHash(data), nil
}

func encode(doc fileDoc, format Format) ([]byte, error) {
	if format == FormatJSON {
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding JSON rule set: %w", err)
		}
		return append(out, '\n'), nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML rule set: %w", err)
	}
	return out, nil
}

// ruleDocs keys the wire map by rule id. Both YAML and JSON marshalers
// emit map keys sorted, so encoding is deterministic.
func ruleDocs(set *rules.RuleSet) map[string]ruleDoc {
	docs := make(map[string]ruleDoc, set.Len())
	for _, id := range set.RuleIDs() {
		r := set.Rules[id]
		docs[string(id)] = ruleDoc{
			ID:                    string(r.ID),
			Type:                  string(r.Type),
			Capability:            r.Capability,
			SatisfiesRequirements: r.SatisfiesRequirements,
			Confidence:            r.Confidence,
			Domain:                string(r.Domain),
			Direction:             string(r.Direction),
			Tags:                  r.Tags,
		}
	}
	return docs
}

func ruleIssues(id core.RuleID, err error) []core.ValidationIssue {
	// NewCapabilityRule joins individual issues; unpack them when possible.
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []core.ValidationIssue
		for _, e := range joined.Unwrap() {
			var issue core.ValidationIssue
			if errors.As(e, &issue) {
				out = append(out, issue)
				continue
			}
			out = append(out, core.NewValidationIssue(id, "", e.Error()))
		}
		return out
	}
	return []core.ValidationIssue{core.NewValidationIssue(id, "", err.Error())}
}
