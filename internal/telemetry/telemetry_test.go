package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("no exporters is a no-op", func(t *testing.T) {
		shutdown, err := Setup(ctx, Options{})
		require.NoError(t, err)
		require.NoError(t, shutdown(ctx))
	})

	t.Run("stdout traces", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Setup(ctx, Options{TracesStdout: true, Stdout: &buf})
		require.NoError(t, err)

		_, span := otel.Tracer("telemetry_test").Start(ctx, "test-span")
		span.End()

		require.NoError(t, shutdown(ctx))
		require.Contains(t, buf.String(), "test-span")
		require.Contains(t, buf.String(), DefaultServiceName)
	})

	t.Run("stdout metrics", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Setup(ctx, Options{MetricsStdout: true, Stdout: &buf, ServiceName: "bodyshop-test"})
		require.NoError(t, err)

		counter, err := otel.Meter("telemetry_test").Int64Counter("test.counter")
		require.NoError(t, err)
		counter.Add(ctx, 3)

		require.NoError(t, shutdown(ctx))
		require.Contains(t, buf.String(), "test.counter")
		require.Contains(t, buf.String(), "bodyshop-test")
	})

	t.Run("rejects unknown OTLP protocol", func(t *testing.T) {
		_, err := Setup(ctx, Options{OTLPEndpoint: "http://localhost:4318", OTLPProtocol: "thrift"})
		require.ErrorIs(t, err, ErrUnknownProtocol)
	})

	for _, protocol := range []string{ProtocolHTTP, ProtocolGRPC} {
		t.Run("creates OTLP exporters over "+protocol, func(t *testing.T) {
			shutdown, err := Setup(ctx, Options{OTLPEndpoint: "http://localhost:4318", OTLPProtocol: protocol})
			require.NoError(t, err)
			require.NotNil(t, shutdown)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_ = shutdown(cancelled)
		})
	}
}
