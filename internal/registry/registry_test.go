package registry

import (
	"sync"
	"testing"

	"supplymatch/domain/core"
	"supplymatch/domain/rules"
	"supplymatch/internal"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func mustRule(t *testing.T, id, capability string, satisfies []string, confidence float64, domain core.Domain) rules.CapabilityRule {
	t.Helper()
	rule, err := rules.NewCapabilityRule(core.RuleID(id), capability, satisfies, confidence, domain, rules.DirectionBidirectional, nil)
	if err != nil {
		t.Fatalf("Failed to build rule %s: %v", id, err)
	}
	return rule
}

func seedSet(t *testing.T, domain core.Domain) *rules.RuleSet {
	t.Helper()
	set := rules.NewRuleSet(domain, "1.0.0")
	if err := set.Add(mustRule(t, "cnc", "cnc machining", []string{"milling", "machining", "material removal"}, 0.9, domain)); err != nil {
		t.Fatalf("Failed to seed set: %v", err)
	}
	if err := set.Add(mustRule(t, "lathe", "lathe", []string{"turning"}, 0.85, domain)); err != nil {
		t.Fatalf("Failed to seed set: %v", err)
	}
	return set
}

func TestCreateGetDelete(t *testing.T) {
	r := New(testLogger())
	rule := mustRule(t, "cnc", "cnc machining", []string{"milling"}, 0.9, "manufacturing")

	if err := r.Create("manufacturing", rule); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := r.Create("manufacturing", rule); err != core.ErrRuleExists {
		t.Errorf("Expected ErrRuleExists on duplicate create, got %v", err)
	}

	got, err := r.Get("manufacturing", "cnc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.EquivalentTo(rule) {
		t.Error("Fetched rule should be equivalent to created rule")
	}

	if _, err := r.Get("manufacturing", "missing"); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
	if _, err := r.Get("cooking", "cnc"); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown domain, got %v", err)
	}

	// Deleting the last rule removes the domain entry entirely.
	if err := r.Delete("manufacturing", "cnc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(r.Domains()) != 0 {
		t.Errorf("Expected empty domain list after deleting last rule, got %v", r.Domains())
	}
}

func TestUpdateRequiresExisting(t *testing.T) {
	r := New(testLogger())
	rule := mustRule(t, "cnc", "cnc machining", []string{"milling"}, 0.9, "manufacturing")

	if err := r.Update("manufacturing", rule); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error updating missing rule, got %v", err)
	}

	if err := r.Create("manufacturing", rule); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	updated := mustRule(t, "cnc", "cnc machining", []string{"milling", "machining"}, 0.95, "manufacturing")
	if err := r.Update("manufacturing", updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := r.Get("manufacturing", "cnc")
	if got.Confidence != 0.95 {
		t.Errorf("Expected updated confidence, got %f", got.Confidence)
	}
}

func TestFindRulesForOrdering(t *testing.T) {
	r := New(testLogger())
	_ = r.Create("manufacturing", mustRule(t, "b_rule", "cnc machining", []string{"milling"}, 0.8, "manufacturing"))
	_ = r.Create("manufacturing", mustRule(t, "a_rule", "cnc machining", []string{"Milling"}, 0.8, "manufacturing"))
	_ = r.Create("manufacturing", mustRule(t, "strong", "cnc machining", []string{"milling"}, 0.95, "manufacturing"))
	_ = r.Create("manufacturing", mustRule(t, "other_cap", "welder", []string{"milling"}, 0.99, "manufacturing"))

	found := r.FindRulesFor("manufacturing", "CNC Machining", "  milling ")
	if len(found) != 3 {
		t.Fatalf("Expected 3 matching rules, got %d", len(found))
	}
	if found[0].ID != "strong" {
		t.Errorf("Expected highest-confidence rule first, got %s", found[0].ID)
	}
	// Equal confidence ties break on id.
	if found[1].ID != "a_rule" || found[2].ID != "b_rule" {
		t.Errorf("Expected id tie-break, got %s then %s", found[1].ID, found[2].ID)
	}

	if got := r.FindRulesFor("cooking", "oven", "baking"); got != nil {
		t.Errorf("Expected nil for unknown domain, got %v", got)
	}
}

func TestImportFullReplace(t *testing.T) {
	r := New(testLogger())
	_ = r.Create("manufacturing", mustRule(t, "old_rule", "press", []string{"stamping"}, 0.7, "manufacturing"))

	stats, err := r.ImportRuleSet(seedSet(t, "manufacturing"), false)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Added != 2 || stats.Updated != 0 {
		t.Errorf("Expected 2 added / 0 updated, got %+v", stats)
	}

	// Full replace drops rules absent from the incoming set.
	if _, err := r.Get("manufacturing", "old_rule"); !core.IsNotFoundError(err) {
		t.Errorf("Expected old_rule to be gone after full replace, got %v", err)
	}
	if _, err := r.Get("manufacturing", "cnc"); err != nil {
		t.Errorf("Expected cnc rule present after import: %v", err)
	}
}

func TestImportPartialMergeAndIdempotence(t *testing.T) {
	r := New(testLogger())

	stats, err := r.ImportRuleSet(seedSet(t, "manufacturing"), true)
	if err != nil {
		t.Fatalf("First import failed: %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("Expected 2 added on first import, got %+v", stats)
	}

	// Second import of the same set adds nothing new.
	stats, err = r.ImportRuleSet(seedSet(t, "manufacturing"), true)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if stats.Added != 0 {
		t.Errorf("Expected 0 added on repeat import, got %+v", stats)
	}

	// Compare against live state reports no changes.
	diff, err := r.Compare(seedSet(t, "manufacturing"))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !diff.Empty() {
		t.Errorf("Expected empty diff after import, got %+v", diff)
	}
}

func TestImportAtomicRollback(t *testing.T) {
	r := New(testLogger())
	if _, err := r.ImportRuleSet(seedSet(t, "manufacturing"), false); err != nil {
		t.Fatalf("Seed import failed: %v", err)
	}
	before, err := r.RuleSet("manufacturing")
	if err != nil {
		t.Fatalf("RuleSet failed: %v", err)
	}

	// Craft a set whose rule fails post-import validation. The invalid
	// rule is inserted directly, bypassing the validating constructor,
	// the way a corrupt persisted payload would arrive.
	bad := rules.NewRuleSet("manufacturing", "2.0.0")
	bad.Rules["broken"] = rules.CapabilityRule{
		ID:                    "broken",
		Type:                  rules.TypeCapabilityMatch,
		Capability:            "drill",
		SatisfiesRequirements: []string{"drilling"},
		Confidence:            2.0,
		Domain:                "manufacturing",
		Direction:             rules.DirectionBidirectional,
	}

	_, err = r.ImportRuleSet(bad, false)
	if !core.IsImportConflict(err) {
		t.Fatalf("Expected import conflict, got %v", err)
	}

	after, err := r.RuleSet("manufacturing")
	if err != nil {
		t.Fatalf("RuleSet failed after rollback: %v", err)
	}
	if !before.EquivalentTo(after) {
		t.Error("Registry state should be unchanged after failed import")
	}
}

func TestCompareDiff(t *testing.T) {
	r := New(testLogger())
	if _, err := r.ImportRuleSet(seedSet(t, "manufacturing"), false); err != nil {
		t.Fatalf("Seed import failed: %v", err)
	}

	next := rules.NewRuleSet("manufacturing", "1.0.0")
	// cnc changed, lathe deleted, welder added.
	_ = next.Add(mustRule(t, "cnc", "cnc machining", []string{"milling"}, 0.95, "manufacturing"))
	_ = next.Add(mustRule(t, "welder", "tig welder", []string{"welding"}, 0.9, "manufacturing"))

	diff, err := r.Compare(next)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(diff.Added) != 1 || diff.Added[0] != "welder" {
		t.Errorf("Expected welder added, got %v", diff.Added)
	}
	if len(diff.Updated) != 1 || diff.Updated[0] != "cnc" {
		t.Errorf("Expected cnc updated, got %v", diff.Updated)
	}
	if len(diff.Deleted) != 1 || diff.Deleted[0] != "lathe" {
		t.Errorf("Expected lathe deleted, got %v", diff.Deleted)
	}
}

func TestCompareUnknownDomainIsAllAdds(t *testing.T) {
	r := New(testLogger())
	diff, err := r.Compare(seedSet(t, "cooking"))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(diff.Added) != 2 || len(diff.Updated) != 0 || len(diff.Deleted) != 0 {
		t.Errorf("Expected pure additions for unknown domain, got %+v", diff)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	r := New(testLogger())
	if _, err := r.ImportRuleSet(seedSet(t, "manufacturing"), false); err != nil {
		t.Fatalf("Seed import failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.FindRulesFor("manufacturing", "cnc machining", "milling")
				_, _ = r.Get("manufacturing", "cnc")
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := r.ImportRuleSet(seedSet(t, "manufacturing"), true); err != nil {
					t.Errorf("Concurrent import failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(r.FindRulesFor("manufacturing", "cnc machining", "milling")) != 1 {
		t.Error("Registry should still serve reads after concurrent imports")
	}
}
