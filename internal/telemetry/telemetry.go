// Package telemetry configures OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
)

const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"

	DefaultServiceName = "bodyshop"
)

// ErrUnknownProtocol is returned for an OTLP protocol other than grpc or http/protobuf.
var ErrUnknownProtocol = errors.New("unknown OTLP protocol")

// Options selects the exporters. With no exporter enabled Setup leaves the
// global no-op providers in place.
type Options struct {
	ServiceName string

	// OTLPEndpoint enables OTLP export. The exporters read the endpoint and
	// headers from the standard OTEL_EXPORTER_OTLP_* variables.
	OTLPEndpoint  string
	OTLPProtocol  string
	TracesStdout  bool
	MetricsStdout bool

	// Stdout receives the stdout exporters' output. Defaults to os.Stdout.
	Stdout io.Writer
}

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global tracer and meter providers according to opts.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	if opts.OTLPProtocol == "" {
		opts.OTLPProtocol = ProtocolHTTP
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", opts.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs error
		for _, fn := range shutdowns {
			errs = multierr.Append(errs, fn(ctx))
		}
		return errs
	}

	tp, err := newTracerProvider(ctx, opts, res)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	mp, err := newMeterProvider(ctx, opts, res)
	if err != nil {
		return nil, multierr.Append(err, shutdown(ctx))
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return shutdown, nil
}

func newTracerProvider(ctx context.Context, opts Options, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exporters []sdktrace.SpanExporter

	if opts.OTLPEndpoint != "" {
		var (
			exp sdktrace.SpanExporter
			err error
		)
		switch opts.OTLPProtocol {
		case ProtocolGRPC:
			exp, err = otlptracegrpc.New(ctx)
		case ProtocolHTTP:
			exp, err = otlptracehttp.New(ctx)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, opts.OTLPProtocol)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if opts.TracesStdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(opts.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if len(exporters) == 0 {
		return nil, nil
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exp := range exporters {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newMeterProvider(ctx context.Context, opts Options, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var readers []sdkmetric.Reader

	if opts.OTLPEndpoint != "" {
		var (
			exp sdkmetric.Exporter
			err error
		)
		switch opts.OTLPProtocol {
		case ProtocolGRPC:
			exp, err = otlpmetricgrpc.New(ctx)
		case ProtocolHTTP:
			exp, err = otlpmetrichttp.New(ctx)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, opts.OTLPProtocol)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp))
	}

	if opts.MetricsStdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp))
	}

	if len(readers) == 0 {
		return nil, nil
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(r))
	}
	return sdkmetric.NewMeterProvider(mpOpts...), nil
}
