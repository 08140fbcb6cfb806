// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package config provides layered configuration management for Pulseboard.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//
//  1. Environment variables (DUCKDB_PATH, HTTP_PORT, SYNC_INTERVAL, ...)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Sync      SyncConfig      `koanf:"sync"`
	Services  ServicesConfig  `koanf:"services"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Security  SecurityConfig  `koanf:"security"`
	Notify    NotifyConfig    `koanf:"notify"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the number of DuckDB threads (0 = use NumCPU).
	Threads int `koanf:"threads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// APIConfig holds pagination and response limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SyncConfig holds upstream data synchronization settings.
type SyncConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	BatchSize     int           `koanf:"batch_size"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	// CronSpec, when set, schedules periodic syncs through the cron
	// scheduler instead of the interval ticker.
	CronSpec string `koanf:"cron_spec"`
}

// ServicesConfig holds base URLs for the upstream microservices that feed
// the metric store. Empty URLs disable collection for that service.
type ServicesConfig struct {
	PartnersCRMURL  string `koanf:"partners_crm_url"`
	ProjectsURL     string `koanf:"projects_url"`
	SocialMediaURL  string `koanf:"social_media_url"`
	NotificationURL string `koanf:"notification_url"`
	// AuthToken is forwarded as a bearer token on upstream calls.
	AuthToken string `koanf:"auth_token"`
}

// AnalyticsConfig holds analytics computation settings.
type AnalyticsConfig struct {
	// RetentionDays is how long metrics are kept before pruning.
	RetentionDays int `koanf:"retention_days"`
	// CacheTTL is how long analytics responses are served from cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// PredictionWindow is the maximum number of recent points used to
	// fit the linear trend model.
	PredictionWindow int `koanf:"prediction_window"`
}

// SecurityConfig holds CORS and rate-limiting settings. Authentication
// itself lives in the upstream gateway; requests arrive with an opaque
// identity header used only for attribution.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	IdentityHeader    string        `koanf:"identity_header"`
}

// NotifyConfig holds goal alert delivery settings.
type NotifyConfig struct {
	// WebhookURL receives goal alert POSTs when set.
	WebhookURL string `koanf:"webhook_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// Validate checks the configuration for malformed or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync batch size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync retry attempts must not be negative, got %d", c.Sync.RetryAttempts)
	}
	if c.API.DefaultPageSize <= 0 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("invalid API page sizes: default=%d max=%d",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	if c.Analytics.PredictionWindow <= 1 {
		return fmt.Errorf("prediction window must be greater than 1, got %d", c.Analytics.PredictionWindow)
	}
	if c.Analytics.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative, got %d", c.Analytics.RetentionDays)
	}

	for name, raw := range map[string]string{
		"services.partners_crm_url": c.Services.PartnersCRMURL,
		"services.projects_url":     c.Services.ProjectsURL,
		"services.social_media_url": c.Services.SocialMediaURL,
		"services.notification_url": c.Services.NotificationURL,
		"notify.webhook_url":        c.Notify.WebhookURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %q", name, raw)
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// EnabledServices returns the upstream services that have a base URL
// configured, keyed by service name string.
func (c *ServicesConfig) EnabledServices() map[string]string {
	enabled := make(map[string]string, 4)
	if c.PartnersCRMURL != "" {
		enabled["partners_crm"] = c.PartnersCRMURL
	}
	if c.ProjectsURL != "" {
		enabled["projects"] = c.ProjectsURL
	}
	if c.SocialMediaURL != "" {
		enabled["social_media"] = c.SocialMediaURL
	}
	if c.NotificationURL != "" {
		enabled["notification"] = c.NotificationURL
	}
	return enabled
}
