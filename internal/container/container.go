package container

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"supplymatch/adapters/excel"
	"supplymatch/adapters/llm"
	"supplymatch/adapters/postgres"
	"supplymatch/adapters/ruleio"
	"supplymatch/adapters/semantic"
	"supplymatch/app"
	"supplymatch/domain/core"
	"supplymatch/internal"
	"supplymatch/internal/config"
	"supplymatch/internal/lifecycle"
	"supplymatch/internal/registry"
	"supplymatch/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Core state
	Registry *registry.Registry

	// Repositories (data access layer)
	SolutionRepo ports.SolutionRepository
	RuleSetRepo  ports.RuleSetRepository

	// Providers for the optional match layers
	SemanticProvider   ports.SemanticProvider
	GenerativeProvider ports.GenerativeProvider

	// Services
	MatchService    *app.MatchService
	RuleService     *app.RuleService
	SolutionService *app.SolutionService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}
	c.Registry = registry.New(c.Logger)

	if err := c.initProviders(); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	c.initServices()
	return c, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	c.SolutionRepo = postgres.NewSolutionRepository(db)
	c.RuleSetRepo = postgres.NewRuleSetRepository(db)

	// Rebind the solution service now that persistence exists.
	c.SolutionService = app.NewSolutionService(c.SolutionRepo, lifecycle.New(c.Logger), c.Logger)

	c.Logger.Info("container initialized with database connection")
	return nil
}

// initProviders wires the optional semantic and generative providers. With
// no API key both stay nil and the pipeline runs direct plus rules only.
func (c *Container) initProviders() error {
	if !c.Config.AI.Enabled() {
		c.Logger.Debug("no OpenAI key configured, semantic and generative layers disabled")
		return nil
	}

	llmConfig := llm.Config{
		APIKey:      c.Config.AI.OpenAIKey,
		BaseURL:     c.Config.AI.BaseURL,
		Model:       c.Config.AI.OpenAIModel,
		Timeout:     c.Config.AI.Timeout,
		Temperature: c.Config.AI.Temperature,
	}

	embedder, err := llm.NewOpenAIEmbedder(llmConfig)
	if err != nil {
		return err
	}
	c.SemanticProvider = semantic.NewCosineProvider(embedder)

	generative, err := llm.NewGenerativeProvider(llmConfig)
	if err != nil {
		return err
	}
	c.GenerativeProvider = generative
	return nil
}

func (c *Container) initServices() {
	c.MatchService = app.NewMatchService(c.Registry, c.SemanticProvider, c.GenerativeProvider, app.MatchServiceConfig{
		NearMissThreshold: c.Config.Match.NearMissThreshold,
		SemanticThreshold: c.Config.Match.SemanticThreshold,
		Workers:           c.Config.Match.Workers,
		DomainContext:     c.Config.AI.DomainContext,
	}, c.Logger)
	c.RuleService = app.NewRuleService(c.Registry, c.Logger)
	c.SolutionService = app.NewSolutionService(nil, lifecycle.New(c.Logger), c.Logger)
}

// LoadRules populates the registry from the configured rules directory and
// optional spreadsheet. A missing rules directory is skipped, not fatal:
// an empty registry still matches directly.
func (c *Container) LoadRules() (app.ImportReport, error) {
	combined := app.ImportReport{Domains: make(map[core.Domain]ports.ImportStats)}

	if dir := c.Config.Rules.Dir; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			c.Logger.Warn("rules directory %s not found, starting with an empty registry", dir)
		} else {
			fileReport, err := c.RuleService.ImportFrom(ruleio.NewReader(dir, c.Logger), true)
			if err != nil {
				return fileReport, err
			}
			mergeReport(&combined, fileReport)
		}
	}

	if file := c.Config.Rules.ExcelFile; file != "" {
		excelReport, err := c.RuleService.ImportFrom(excel.NewRuleReader(file, c.Logger), true)
		if err != nil {
			return excelReport, err
		}
		mergeReport(&combined, excelReport)
	}
	return combined, nil
}

func mergeReport(into *app.ImportReport, from app.ImportReport) {
	into.Skipped = append(into.Skipped, from.Skipped...)
	for domain, stats := range from.Domains {
		merged := into.Domains[domain]
		merged.Added += stats.Added
		merged.Updated += stats.Updated
		into.Domains[domain] = merged
	}
}

// Close releases held resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
