package container

import (
	"os"
	"path/filepath"
	"testing"

	"supplymatch/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Match:    config.MatchConfig{NearMissThreshold: 2, SemanticThreshold: 0.75},
		LogLevel: "error",
	}
}

func TestNewWithoutProviders(t *testing.T) {
	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if c.SemanticProvider != nil || c.GenerativeProvider != nil {
		t.Error("Expected no providers without an API key")
	}
	if c.MatchService == nil || c.RuleService == nil || c.SolutionService == nil {
		t.Error("Expected all services wired")
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewWithProviders(t *testing.T) {
	cfg := testConfig()
	cfg.AI.OpenAIKey = "sk-test"
	cfg.AI.OpenAIModel = "gpt-4o-mini"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.SemanticProvider == nil || c.GenerativeProvider == nil {
		t.Error("Expected both providers with an API key")
	}
}

func TestLoadRulesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	ruleFile := `
domain: bakery
rules:
  - id: flour-rule
    capability: all purpose flour
    satisfies_requirements: [flour]
    confidence: 0.9
`
	if err := os.WriteFile(filepath.Join(dir, "bakery.yaml"), []byte(ruleFile), 0o644); err != nil {
		t.Fatalf("Failed to write rule file: %v", err)
	}

	cfg := testConfig()
	cfg.Rules.Dir = dir
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := c.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if report.Domains["bakery"].Added != 1 {
		t.Errorf("Expected one rule loaded, got %+v", report.Domains)
	}
	if _, err := c.Registry.Get("bakery", "flour-rule"); err != nil {
		t.Errorf("Expected rule in registry: %v", err)
	}
}

func TestLoadRulesMissingDirectory(t *testing.T) {
	cfg := testConfig()
	cfg.Rules.Dir = filepath.Join(t.TempDir(), "missing")

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.LoadRules(); err != nil {
		t.Errorf("Missing rules directory must not be fatal, got %v", err)
	}
}
