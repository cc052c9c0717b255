package config

import (
	"os"
	"strconv"
	"time"

	"supplymatch/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Rules    RulesConfig
	Match    MatchConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings. Persistence is
// optional: with no URL the engine runs purely in memory.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// AIConfig holds settings for the optional semantic and generative layers
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	BaseURL       string
	DomainContext string
	Temperature   float64
	Timeout       time.Duration
}

// Enabled reports whether the generative layer can be constructed.
func (c AIConfig) Enabled() bool {
	return c.OpenAIKey != ""
}

// RulesConfig holds rule-loading settings
type RulesConfig struct {
	Dir       string
	ExcelFile string
}

// MatchConfig holds match pipeline tuning
type MatchConfig struct {
	NearMissThreshold int
	SemanticThreshold float64
	Workers           int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		AI:       loadAIConfig(),
		Rules:    loadRulesConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	matchConfig, err := loadMatchConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load match configuration")
	}
	config.Match = *matchConfig

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	return DatabaseConfig{URL: url, Enabled: url != ""}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BaseURL:       os.Getenv("OPENAI_BASE_URL"),
		DomainContext: os.Getenv("MATCH_DOMAIN_CONTEXT"),
		Temperature:   getEnvFloatOrDefault("OPENAI_TEMPERATURE", 0),
		Timeout:       getEnvDurationOrDefault("OPENAI_TIMEOUT", 30*time.Second),
	}
}

func loadRulesConfig() RulesConfig {
	return RulesConfig{
		Dir:       getEnvOrDefault("RULES_DIR", "./rules"),
		ExcelFile: os.Getenv("RULES_EXCEL_FILE"),
	}
}

func loadMatchConfig() (*MatchConfig, error) {
	// Zero is rejected rather than treated as "unset": downstream
	// constructors substitute their defaults for non-positive values,
	// so an explicit 0 would silently become 2 or 0.75.
	nearMiss := getEnvIntOrDefault("NEAR_MISS_THRESHOLD", 2)
	if nearMiss <= 0 {
		return nil, errors.ConfigInvalid("NEAR_MISS_THRESHOLD must be > 0")
	}

	semantic := getEnvFloatOrDefault("SEMANTIC_THRESHOLD", 0.75)
	if semantic <= 0 || semantic > 1 {
		return nil, errors.ConfigInvalid("SEMANTIC_THRESHOLD must be in (0,1]")
	}

	workers := getEnvIntOrDefault("MATCH_WORKERS", 0)
	if workers < 0 {
		return nil, errors.ConfigInvalid("MATCH_WORKERS must be >= 0")
	}

	return &MatchConfig{
		NearMissThreshold: nearMiss,
		SemanticThreshold: semantic,
		Workers:           workers,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
