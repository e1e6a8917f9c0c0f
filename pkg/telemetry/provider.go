package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer and meter
const InstrumentationName = "github.com/vishxl-0001/vipn"

// Options configure Setup
type Options struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint enables the gRPC exporter, e.g. "otel-collector:4317"
	OTLPEndpoint string
	Insecure     bool

	// StdoutTraces prints spans to StdoutWriter (os.Stdout when nil)
	StdoutTraces bool
	StdoutWriter io.Writer

	// SampleRatio in (0, 1); anything else samples every trace
	SampleRatio float64

	// MetricReader collects storefront metrics; without one the meter
	// provider records nothing
	MetricReader sdkmetric.Reader

	Disabled bool
}

// Provider owns the installed tracer and meter providers
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	exporter       string
}

// Setup builds a tracer provider from opts and installs it, together with
// the W3C trace-context propagator, as the global provider.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Disabled {
		return &Provider{
			Tracer:   otel.Tracer(InstrumentationName),
			Meter:    otel.Meter(InstrumentationName),
			exporter: "none",
		}, nil
	}

	if opts.ServiceName == "" {
		opts.ServiceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "storefront"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(opts.ServiceName),
		semconv.ServiceVersionKey.String(opts.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(opts.Environment),
		semconv.K8SNamespaceNameKey.String(os.Getenv("KUBERNETES_NAMESPACE")),
		semconv.K8SPodNameKey.String(os.Getenv("HOSTNAME")),
		attribute.String("storefront.currency", "INR"),
	)

	sampler := sdktrace.AlwaysSample()
	if opts.SampleRatio > 0 && opts.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}

	exporterName := "none"
	switch {
	case opts.OTLPEndpoint != "":
		clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.OTLPEndpoint)}
		if opts.Insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
		exporterName = "otlp"
	case opts.StdoutTraces:
		w := opts.StdoutWriter
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
		exporterName = "stdout"
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.MetricReader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(opts.MetricReader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer(InstrumentationName),
		Meter:          mp.Meter(InstrumentationName),
		exporter:       exporterName,
	}, nil
}

// Exporter names the active trace exporter: otlp, stdout or none
func (p *Provider) Exporter() string {
	return p.exporter
}

// StartSpan starts a span on the storefront tracer
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes and stops both providers
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}
	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}
