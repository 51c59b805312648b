package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads required config from env", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("CACHE_DEFAULT_TTL", "")
		t.Setenv("CACHE_CATALOG_TTL", "")
		t.Setenv("CACHE_LOOKUP_TTL", "")
		t.Setenv("CACHE_SWEEP_SCHEDULE", "")
		t.Setenv("APP_TIMEZONE", "")
		t.Setenv("FIXED_EXPENSE_ATOMIC", "")
		t.Setenv("FIXED_EXPENSE_SCHEDULE", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.HTTPAddr)
		require.Equal(t, 5*time.Minute, cfg.CacheDefaultTTL)
		require.Equal(t, 10*time.Minute, cfg.CacheCatalogTTL)
		require.Equal(t, 5*time.Minute, cfg.CacheLookupTTL)
		require.Equal(t, "@every 10m", cfg.CacheSweepSchedule)
		require.Equal(t, "America/Sao_Paulo", cfg.Timezone)
		require.True(t, cfg.FixedExpenseAtomic)
		require.Empty(t, cfg.FixedExpenseSchedule)
	})

	t.Run("parses cache durations", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("CACHE_DEFAULT_TTL", "90s")
		t.Setenv("CACHE_CATALOG_TTL", "15m")
		t.Setenv("CACHE_LOOKUP_TTL", "2m")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 90*time.Second, cfg.CacheDefaultTTL)
		require.Equal(t, 15*time.Minute, cfg.CacheCatalogTTL)
		require.Equal(t, 2*time.Minute, cfg.CacheLookupTTL)
	})

	t.Run("falls back on invalid or non-positive durations", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("CACHE_DEFAULT_TTL", "soon")
		t.Setenv("CACHE_CATALOG_TTL", "-1m")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 5*time.Minute, cfg.CacheDefaultTTL)
		require.Equal(t, 10*time.Minute, cfg.CacheCatalogTTL)
	})

	t.Run("ignores unknown timezone", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	})

	t.Run("accepts valid timezone", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("APP_TIMEZONE", "UTC")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "UTC", cfg.Timezone)
		require.Equal(t, time.UTC, cfg.Location())
	})

	t.Run("configures fixed expense options", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("FIXED_EXPENSE_ATOMIC", "false")
		t.Setenv("FIXED_EXPENSE_SCHEDULE", " 0 6 * * * ")
		t.Setenv("OTEL_TRACES_STDOUT", "true")

		cfg, err := Load()
		require.NoError(t, err)
		require.False(t, cfg.FixedExpenseAtomic)
		require.Equal(t, "0 6 * * *", cfg.FixedExpenseSchedule)
		require.True(t, cfg.TracesStdoutExporter)
	})

	t.Run("fails without DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		cfg, err := Load()
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "DATABASE_URL is required")
	})

	t.Run("reads telemetry settings", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("OTEL_SERVICE_NAME", "")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
		t.Setenv("OTEL_METRICS_STDOUT", "true")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "bodyshop", cfg.ServiceName)
		require.Equal(t, "http://collector:4317", cfg.OTLPEndpoint)
		require.Equal(t, "grpc", cfg.OTLPProtocol)
		require.True(t, cfg.MetricsStdoutExporter)
	})

	t.Run("defaults OTLP protocol to http", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "http/protobuf", cfg.OTLPProtocol)
	})

	t.Run("rejects unknown OTLP protocol", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "thrift")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "OTEL_EXPORTER_OTLP_PROTOCOL")
	})

	t.Run("rejects unknown log format", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("LOG_FORMAT", "xml")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "LOG_FORMAT")
	})
}
