package cache

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// RegisterMetrics publishes the entry count and approximate size of c as
// observable gauges on meter.
func RegisterMetrics(c *TenantCache, meter metric.Meter) (metric.Registration, error) {
	entries, err := meter.Int64ObservableGauge("cache.entries",
		metric.WithDescription("Live and not yet swept entries in the tenant cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache entries gauge: %w", err)
	}
	size, err := meter.Int64ObservableGauge("cache.approx_bytes",
		metric.WithDescription("Approximate JSON-encoded size of the tenant cache"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache size gauge: %w", err)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := c.Stats()
		o.ObserveInt64(entries, int64(stats.Entries))
		o.ObserveInt64(size, int64(stats.ApproxBytes))
		return nil
	}, entries, size)
	if err != nil {
		return nil, fmt.Errorf("failed to register cache metrics callback: %w", err)
	}
	return reg, nil
}
