// Package telemetry wires OpenTelemetry tracing and metrics for the
// storefront and carries request correlation ids through contexts.
//
// Setup picks a trace exporter from its options: OTLP over gRPC when an
// endpoint is set, pretty-printed stdout spans when StdoutTraces is on, and
// no exporter otherwise. The provider is installed globally so otelhttp
// picks it up.
//
//	prov, err := telemetry.Setup(ctx, telemetry.Options{ServiceName: "storefront"})
//	defer prov.Shutdown(ctx)
//	metrics, _ := telemetry.NewMetrics(prov.Meter)
//	metrics.PageView(ctx, "products")
//
// CorrelationMiddleware assigns X-Correlation-ID and X-Request-ID and
// EnrichLogFields copies them, plus trace and span ids, into log fields.
package telemetry
