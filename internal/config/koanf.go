// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pulseboard/config.yaml",
	"/etc/pulseboard/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/pulseboard.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:        8009,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 100,
			MaxPageSize:     1000,
		},
		Sync: SyncConfig{
			Enabled:       true,
			Interval:      time.Hour,
			BatchSize:     1000,
			Timeout:       5 * time.Minute,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			CronSpec:      "",
		},
		Services: ServicesConfig{},
		Analytics: AnalyticsConfig{
			RetentionDays:    1095, // 3 years
			CacheTTL:         5 * time.Minute,
			PredictionWindow: 90,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			IdentityHeader:  "X-Identity",
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with layered precedence: defaults, then an
// optional YAML config file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables have the highest priority. Names map to
	// koanf paths via envTransform: DUCKDB_PATH -> database.path.
	envProvider := env.Provider("", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the path of the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps flat environment variable names to koanf paths.
// Variables not in this table are ignored, which keeps unrelated
// environment noise out of the configuration.
var envMappings = map[string]string{
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_port":   "server.port",
	"http_host":   "server.host",
	"environment": "server.environment",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"sync_enabled":        "sync.enabled",
	"sync_interval":       "sync.interval",
	"sync_batch_size":     "sync.batch_size",
	"sync_timeout":        "sync.timeout",
	"sync_retry_attempts": "sync.retry_attempts",
	"sync_retry_delay":    "sync.retry_delay",
	"sync_cron_spec":      "sync.cron_spec",

	"partners_crm_service_url": "services.partners_crm_url",
	"projects_service_url":     "services.projects_url",
	"social_media_service_url": "services.social_media_url",
	"notification_service_url": "services.notification_url",
	"service_auth_token":       "services.auth_token",

	"analytics_retention_days":    "analytics.retention_days",
	"analytics_cache_ttl":         "analytics.cache_ttl",
	"analytics_prediction_window": "analytics.prediction_window",

	"cors_origins":        "security.cors_origins",
	"rate_limit_reqs":     "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"rate_limit_disabled": "security.rate_limit_disabled",
	"identity_header":     "security.identity_header",

	"alert_webhook_url": "notify.webhook_url",
	"notify_timeout":    "notify.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransform maps an environment variable name to its koanf path.
// Unknown variables map to "" and are skipped by koanf.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}
