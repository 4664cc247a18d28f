package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

// Routing modes for deciding whether a message goes to the calendar webhook
const (
	RoutingAll      = "all"
	RoutingKeywords = "keywords"
)

type Config struct {
	// Calendar webhook
	WebhookURL           string
	WebhookLegacyPayload bool
	WebhookTimeout       time.Duration
	WebhookRetries       int

	// Language model
	AnthropicAPIKey string
	LLMModel        string
	LLMTemperature  float64

	// Optional with defaults
	DBPath           string
	HTTPPort         int
	LogLevel         string
	DevMode          bool
	Routing          string
	DisambiguateDays bool
	HistorySize      int

	// Session retention, disabled when RetentionDays is 0
	RetentionDays int
	PruneSchedule string
}

func defaults() *Config {
	return &Config{
		WebhookTimeout: 30 * time.Second,
		WebhookRetries: 2,
		LLMModel:       "claude-sonnet-4-20250514",
		LLMTemperature: 0.7,
		DBPath:         "./clarity.db",
		HTTPPort:       8080,
		LogLevel:       "info",
		Routing:        RoutingAll,
		HistorySize:    25,
		PruneSchedule:  "@hourly",
	}
}

// Load reads the YAML file named by CLARITY_CONFIG_FILE, when set, and then
// applies environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CLARITY_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadFromEnv builds the configuration from defaults and environment variables only
func LoadFromEnv() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	// Calendar webhook
	cfg.WebhookURL = getEnvOrDefault("CLARITY_WEBHOOK_URL", getEnvOrDefault("NEXT_PUBLIC_WEBHOOK_URL", cfg.WebhookURL))
	cfg.WebhookLegacyPayload = getEnvAsBoolOrDefault("CLARITY_WEBHOOK_LEGACY", cfg.WebhookLegacyPayload)
	if secs := getEnvAsIntOrDefault("CLARITY_WEBHOOK_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.WebhookTimeout = time.Duration(secs) * time.Second
	}
	cfg.WebhookRetries = getEnvAsIntOrDefault("CLARITY_WEBHOOK_RETRIES", cfg.WebhookRetries)

	// Language model
	cfg.AnthropicAPIKey = getEnvOrDefault("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.LLMModel = getEnvOrDefault("CLARITY_LLM_MODEL", cfg.LLMModel)
	cfg.LLMTemperature = getEnvAsFloatOrDefault("CLARITY_LLM_TEMPERATURE", cfg.LLMTemperature)

	// Optional with defaults
	cfg.DBPath = getEnvOrDefault("CLARITY_DB_PATH", cfg.DBPath)
	cfg.HTTPPort = getEnvAsIntOrDefault("CLARITY_HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnvOrDefault("CLARITY_LOG_LEVEL", cfg.LogLevel)
	cfg.DevMode = getEnvAsBoolOrDefault("CLARITY_DEV_MODE", cfg.DevMode)
	cfg.Routing = getEnvOrDefault("CLARITY_ROUTING", cfg.Routing)
	cfg.DisambiguateDays = getEnvAsBoolOrDefault("CLARITY_DISAMBIGUATE_DAYS", cfg.DisambiguateDays)
	cfg.HistorySize = getEnvAsIntOrDefault("CLARITY_HISTORY_SIZE", cfg.HistorySize)
	cfg.RetentionDays = getEnvAsIntOrDefault("CLARITY_RETENTION_DAYS", cfg.RetentionDays)
	cfg.PruneSchedule = getEnvOrDefault("CLARITY_PRUNE_SCHEDULE", cfg.PruneSchedule)

	if cfg.Routing != RoutingAll && cfg.Routing != RoutingKeywords {
		cfg.Routing = RoutingAll
	}
	if cfg.RetentionDays < 0 {
		cfg.RetentionDays = 0
	}
}

// CalendarConfigured reports whether a webhook URL is available
func (c *Config) CalendarConfigured() bool {
	return c.WebhookURL != ""
}

// LLMConfigured reports whether the language model can be called
func (c *Config) LLMConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
