package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML files. Pointer fields distinguish an
// explicit false or zero from an absent key. The API key is read from the
// environment only.
type fileConfig struct {
	Webhook struct {
		URL            string `yaml:"url"`
		Legacy         *bool  `yaml:"legacy"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Retries        *int   `yaml:"retries"`
	} `yaml:"webhook"`

	LLM struct {
		Model       string   `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"llm"`

	DBPath           string `yaml:"db_path"`
	HTTPPort         int    `yaml:"http_port"`
	LogLevel         string `yaml:"log_level"`
	DevMode          *bool  `yaml:"dev_mode"`
	Routing          string `yaml:"routing"`
	DisambiguateDays *bool  `yaml:"disambiguate_days"`
	HistorySize      *int   `yaml:"history_size"`

	Retention struct {
		Days     *int   `yaml:"days"`
		Schedule string `yaml:"schedule"`
	} `yaml:"retention"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Webhook.URL != "" {
		cfg.WebhookURL = fc.Webhook.URL
	}
	if fc.Webhook.Legacy != nil {
		cfg.WebhookLegacyPayload = *fc.Webhook.Legacy
	}
	if fc.Webhook.TimeoutSeconds > 0 {
		cfg.WebhookTimeout = time.Duration(fc.Webhook.TimeoutSeconds) * time.Second
	}
	if fc.Webhook.Retries != nil {
		cfg.WebhookRetries = *fc.Webhook.Retries
	}

	if fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if fc.LLM.Temperature != nil {
		cfg.LLMTemperature = *fc.LLM.Temperature
	}

	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.HTTPPort > 0 {
		cfg.HTTPPort = fc.HTTPPort
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.DevMode != nil {
		cfg.DevMode = *fc.DevMode
	}
	if fc.Routing != "" {
		cfg.Routing = fc.Routing
	}
	if fc.DisambiguateDays != nil {
		cfg.DisambiguateDays = *fc.DisambiguateDays
	}
	if fc.HistorySize != nil {
		cfg.HistorySize = *fc.HistorySize
	}
	if fc.Retention.Days != nil {
		cfg.RetentionDays = *fc.Retention.Days
	}
	if fc.Retention.Schedule != "" {
		cfg.PruneSchedule = fc.Retention.Schedule
	}

	return nil
}
