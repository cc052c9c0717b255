package ruleio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/ports"
)

// Reader loads capability rule sets from YAML and JSON files. It reads a
// single file or every rule file in a directory, merging same-domain sets.
type Reader struct {
	path   string
	logger *internal.Logger
}

// NewReader creates a reader for a rule file or directory of rule files.
func NewReader(path string, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Reader{path: path, logger: logger.Named("ruleio")}
}

var _ ports.RuleSetReader = (*Reader)(nil)

// ReadRuleSets loads every rule set under the configured path. Invalid
// rules are skipped and reported as issues alongside the loaded sets.
func (r *Reader) ReadRuleSets() ([]*rules.RuleSet, []core.ValidationIssue, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat rules path %s: %w", r.path, err)
	}

	paths := []string{r.path}
	if info.IsDir() {
		paths, err = ruleFilesIn(r.path)
		if err != nil {
			return nil, nil, err
		}
	}

	merged := make(map[core.Domain]*rules.RuleSet)
	var issues []core.ValidationIssue
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading rule file %s: %w", path, err)
		}
		sets, fileIssues, err := DecodeRuleSets(data, FormatForPath(path))
		if err != nil {
			return nil, nil, fmt.Errorf("rule file %s: %w", path, err)
		}
		issues = append(issues, fileIssues...)

		for _, set := range sets {
			existing, ok := merged[set.Domain]
			if !ok {
				merged[set.Domain] = set
				continue
			}
			for _, id := range set.RuleIDs() {
				if err := existing.Add(set.Rules[id]); err != nil {
					issues = append(issues, core.NewValidationIssue(id, "domain", err.Error()))
				}
			}
		}
		r.logger.Debug("loaded %d rule set(s) from %s", len(sets), path)
	}

	domains := make([]core.Domain, 0, len(merged))
	for d := range merged {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })

	out := make([]*rules.RuleSet, 0, len(merged))
	total := 0
	for _, d := range domains {
		out = append(out, merged[d])
		total += merged[d].Len()
	}
	r.logger.Info("loaded %d rule(s) across %d domain(s), %d skipped", total, len(out), len(issues))
	return out, issues, nil
}

// WriteFile persists a rule set to the given path in the format its
// extension implies.
func WriteFile(path string, set *rules.RuleSet) error {
	data, err := EncodeRuleSet(set, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rule file %s: %w", path, err)
	}
	return nil
}

func ruleFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
