package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"supplymatch/domain/core"
	"supplymatch/internal"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func header() []interface{} {
	return []interface{}{"ID", "Capability", "Satisfies", "Confidence", "Direction", "Tags"}
}

func TestReadRuleSetsFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Bakery": {
			header(),
			{"flour-general", "all purpose flour", "flour; wheat flour", 0.9, "bidirectional", "staple"},
			{"butter-sub", "margarine", "butter", 0.7, "forward", ""},
		},
	})

	reader := NewRuleReader(path, internal.NewLogger(internal.LogLevelError))
	sets, issues, err := reader.ReadRuleSets()
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, sets, 1)

	set := sets[0]
	assert.Equal(t, core.Domain("bakery"), set.Domain, "sheet name becomes the domain, lowercased")
	assert.Equal(t, 2, set.Len())

	rule, ok := set.Get("flour-general")
	require.True(t, ok)
	assert.Equal(t, "all purpose flour", rule.Capability)
	assert.Equal(t, []string{"flour", "wheat flour"}, rule.SatisfiesRequirements)
	assert.Equal(t, 0.9, rule.Confidence)
	assert.Equal(t, []string{"staple"}, rule.Tags)
}

func TestReadRuleSetsSkipsBadRows(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Bakery": {
			header(),
			{"good-rule", "flour", "flour", 1.0, "", ""},
			{"bad-confidence", "sugar", "sweetener", "not-a-number", "", ""},
			{"out-of-range", "salt", "seasoning", 2.0, "", ""},
			{"", "", "", "", "", ""},
		},
	})

	reader := NewRuleReader(path, internal.NewLogger(internal.LogLevelError))
	sets, issues, err := reader.ReadRuleSets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 1, sets[0].Len(), "only the valid row should load")
	assert.Len(t, issues, 2, "blank rows are not issues")
}

func TestReadRuleSetsMultipleSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Bakery": {
			header(),
			{"flour-rule", "flour", "flour", 1.0, "", ""},
		},
		"Hardware": {
			header(),
			{"bolt-rule", "m6 bolt", "m6 fastener", 0.95, "", ""},
		},
	})

	reader := NewRuleReader(path, internal.NewLogger(internal.LogLevelError))
	sets, issues, err := reader.ReadRuleSets()
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, sets, 2)

	domains := map[core.Domain]bool{}
	for _, set := range sets {
		domains[set.Domain] = true
	}
	assert.True(t, domains["bakery"])
	assert.True(t, domains["hardware"])
}

func TestReadRuleSetsMissingColumn(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Bakery": {
			{"ID", "Capability"},
			{"flour-rule", "flour"},
		},
	})

	reader := NewRuleReader(path, internal.NewLogger(internal.LogLevelError))
	_, _, err := reader.ReadRuleSets()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "satisfies")
}

func TestReadRuleSetsMissingFile(t *testing.T) {
	reader := NewRuleReader(filepath.Join(t.TempDir(), "nope.xlsx"), nil)
	_, _, err := reader.ReadRuleSets()
	assert.Error(t, err)
}
