package excel

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/internal"
	"supplymatch/ports"
)

// RuleReader loads capability rules from a spreadsheet. Each sheet holds
// one domain's rules: the sheet name is the domain, the first row is the
// header, and list-valued columns use semicolons.
type RuleReader struct {
	filePath string
	logger   *internal.Logger
}

// NewRuleReader creates a spreadsheet rule reader for the given file.
func NewRuleReader(filePath string, logger *internal.Logger) *RuleReader {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &RuleReader{filePath: filePath, logger: logger.Named("excel")}
}

var _ ports.RuleSetReader = (*RuleReader)(nil)

// Columns recognized in the header row, matched case-insensitively.
const (
	colID         = "id"
	colCapability = "capability"
	colSatisfies  = "satisfies"
	colConfidence = "confidence"
	colDirection  = "direction"
	colTags       = "tags"
)

// ReadRuleSets reads every sheet into a domain rule set. Rows that fail
// validation are skipped and reported as issues; the rest still load.
func (r *RuleReader) ReadRuleSets() ([]*rules.RuleSet, []core.ValidationIssue, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, nil, fmt.Errorf("spreadsheet not found: %s: %w", r.filePath, err)
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening spreadsheet %s: %w", r.filePath, err)
	}
	defer f.Close()

	var sets []*rules.RuleSet
	var issues []core.ValidationIssue
	for _, sheet := range f.GetSheetList() {
		set, sheetIssues, err := r.readSheet(f, sheet)
		if err != nil {
			return nil, nil, err
		}
		issues = append(issues, sheetIssues...)
		if set != nil {
			sets = append(sets, set)
		}
	}

	total := 0
	for _, set := range sets {
		total += set.Len()
	}
	r.logger.Info("loaded %d rule(s) from %d sheet(s) in %s, %d skipped", total, len(sets), r.filePath, len(issues))
	return sets, issues, nil
}

func (r *RuleReader) readSheet(f *excelize.File, sheet string) (*rules.RuleSet, []core.ValidationIssue, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		r.logger.Debug("sheet %s has no data rows, skipping", sheet)
		return nil, nil, nil
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}

	domain := core.Domain(strings.ToLower(strings.TrimSpace(sheet)))
	set := rules.NewRuleSet(domain, "")

	var issues []core.ValidationIssue
	for i, row := range rows[1:] {
		id := core.RuleID(cell(row, columns[colID]))
		if id == "" && rowEmpty(row) {
			continue
		}

		confidence, err := strconv.ParseFloat(cell(row, columns[colConfidence]), 64)
		if err != nil {
			issues = append(issues, core.NewValidationIssue(id, colConfidence, fmt.Sprintf("row %d: not a number: %q", i+2, cell(row, columns[colConfidence]))))
			continue
		}

		rule, err := rules.NewCapabilityRule(
			id,
			cell(row, columns[colCapability]),
			splitList(cell(row, columns[colSatisfies])),
			confidence,
			domain,
			rules.Direction(strings.ToLower(cell(row, columns[colDirection]))),
			splitList(cell(row, columns[colTags])),
		)
		if err != nil {
			issues = append(issues, core.NewValidationIssue(id, "", fmt.Sprintf("row %d: %v", i+2, err)))
			continue
		}
		if err := set.Add(rule); err != nil {
			issues = append(issues, core.NewValidationIssue(id, "domain", err.Error()))
		}
	}
	return set, issues, nil
}

// headerIndex maps recognized column names to their positions. ID,
// capability, satisfies and confidence are required; the rest optional.
func headerIndex(header []string) (map[string]int, error) {
	columns := map[string]int{
		colID: -1, colCapability: -1, colSatisfies: -1,
		colConfidence: -1, colDirection: -1, colTags: -1,
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, known := columns[key]; known {
			columns[key] = i
		}
	}
	for _, required := range []string{colID, colCapability, colSatisfies, colConfidence} {
		if columns[required] < 0 {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
