// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultCacheTTL           = 5 * time.Minute
	defaultCatalogCacheTTL    = 10 * time.Minute
	defaultLookupCacheTTL     = 5 * time.Minute
	defaultCacheSweepSchedule = "@every 10m"
	defaultTimezone           = "America/Sao_Paulo"
	defaultServiceName        = "bodyshop"
	defaultOTLPProtocol       = "http/protobuf"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	LogFormat   string

	CacheDefaultTTL    time.Duration
	CacheCatalogTTL    time.Duration
	CacheLookupTTL     time.Duration
	CacheSweepSchedule string

	Timezone             string
	FixedExpenseAtomic   bool
	FixedExpenseSchedule string

	ServiceName           string
	OTLPEndpoint          string
	OTLPProtocol          string
	TracesStdoutExporter  bool
	MetricsStdoutExporter bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		HTTPAddr:             os.Getenv("HTTP_ADDR"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		LogFormat:            os.Getenv("LOG_FORMAT"),
		CacheSweepSchedule:   strings.TrimSpace(os.Getenv("CACHE_SWEEP_SCHEDULE")),
		FixedExpenseSchedule: strings.TrimSpace(os.Getenv("FIXED_EXPENSE_SCHEDULE")),
		ServiceName:          os.Getenv("OTEL_SERVICE_NAME"),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPProtocol:         os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.CacheSweepSchedule == "" {
		cfg.CacheSweepSchedule = defaultCacheSweepSchedule
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.OTLPProtocol == "" {
		cfg.OTLPProtocol = defaultOTLPProtocol
	}

	cfg.CacheDefaultTTL = durationFromEnv("CACHE_DEFAULT_TTL", defaultCacheTTL)
	cfg.CacheCatalogTTL = durationFromEnv("CACHE_CATALOG_TTL", defaultCatalogCacheTTL)
	cfg.CacheLookupTTL = durationFromEnv("CACHE_LOOKUP_TTL", defaultLookupCacheTTL)

	cfg.Timezone = defaultTimezone
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.Timezone = tz
		}
	}

	cfg.FixedExpenseAtomic = os.Getenv("FIXED_EXPENSE_ATOMIC") != "false"
	cfg.TracesStdoutExporter = os.Getenv("OTEL_TRACES_STDOUT") == "true"
	cfg.MetricsStdoutExporter = os.Getenv("OTEL_METRICS_STDOUT") == "true"

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// durationFromEnv parses a positive duration, falling back to def when the
// variable is unset or invalid.
func durationFromEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.LogFormat != "" && c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	if c.OTLPProtocol != "grpc" && c.OTLPProtocol != "http/protobuf" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_PROTOCOL must be grpc or http/protobuf")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Location returns the configured application timezone. It falls back to UTC
// if the zone database cannot resolve the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
