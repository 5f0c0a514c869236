package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	metrics "github.com/callscope/callscope/pkg/bulk/core/metrics"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
)

const instrumentationName = "github.com/callscope/callscope"

// OtelTracer implements metrics.Tracer on the OpenTelemetry SDK with an
// OTLP exporter.
type OtelTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOtelTracer creates a tracer exporting to the configured OTLP endpoint
// over gRPC or HTTP. The caller owns Shutdown.
func NewOtelTracer(ctx context.Context, cfg config.TracingConfig) (*OtelTracer, error) {
	exporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create OTLP trace exporter", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(serviceResource()),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(provider)

	return &OtelTracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}, nil
}

func newTraceExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	case "", "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported trace exporter '%s'", cfg.Exporter)
	}
}

func serviceResource() *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", "callscope"),
	)
}

// StartRunSpan starts a span covering one bulk run.
func (t *OtelTracer) StartRunSpan(ctx context.Context, snap model.BatchJobSnapshot) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "bulk.run",
		trace.WithAttributes(
			attribute.String("bulk.operation", string(snap.Type)),
			attribute.String("bulk.job_id", snap.ID),
			attribute.Int("bulk.total_items", snap.Total),
		),
	)
	return ctx, func() { span.End() }
}

// RecordError records an error on the span in ctx and marks it failed.
func (t *OtelTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records a named event with attributes on the span in ctx.
func (t *OtelTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, anyAttribute(k, v))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Shutdown flushes and stops the tracer provider.
func (t *OtelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

func anyAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

var _ metrics.Tracer = (*OtelTracer)(nil)
