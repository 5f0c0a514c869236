package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	metricsport "github.com/callscope/callscope/pkg/bulk/core/metrics"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
)

// OtelRecorder implements metrics.MetricRecorder on the OpenTelemetry
// metrics SDK with a periodic OTLP exporter. It is the push-based
// alternative to PrometheusRecorder.
type OtelRecorder struct {
	provider *sdkmetric.MeterProvider

	runCounter    metric.Int64Counter
	runDuration   metric.Float64Histogram
	itemCounter   metric.Int64Counter
	failureCount  metric.Int64Counter
}

// NewOtelRecorder creates a recorder pushing to the configured OTLP
// endpoint. The caller owns Shutdown.
func NewOtelRecorder(ctx context.Context, cfg config.MetricsConfig) (*OtelRecorder, error) {
	exporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create OTLP metric exporter", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(serviceResource()),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter(instrumentationName)

	runCounter, err := meter.Int64Counter("bulk.run.status",
		metric.WithDescription("Bulk runs by operation and status."))
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create run counter", err)
	}
	runDuration, err := meter.Float64Histogram("bulk.run.duration",
		metric.WithDescription("Duration of bulk runs in seconds."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create run duration histogram", err)
	}
	itemCounter, err := meter.Int64Counter("bulk.item.outcome",
		metric.WithDescription("Item resolutions by operation and outcome."))
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create item counter", err)
	}
	failureCount, err := meter.Int64Counter("bulk.item.failure",
		metric.WithDescription("Item failures by operation and reason."))
	if err != nil {
		return nil, exception.NewBulkError("metrics", "failed to create failure counter", err)
	}

	return &OtelRecorder{
		provider:     provider,
		runCounter:   runCounter,
		runDuration:  runDuration,
		itemCounter:  itemCounter,
		failureCount: failureCount,
	}, nil
}

func newMetricExporter(ctx context.Context, cfg config.MetricsConfig) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "http":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported metric exporter '%s'", cfg.Exporter)
	}
}

func (r *OtelRecorder) RecordRunStart(ctx context.Context, snap model.BatchJobSnapshot) {
	r.runCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(snap.Type)),
		attribute.String("status", string(snap.Status)),
	))
}

func (r *OtelRecorder) RecordRunEnd(ctx context.Context, snap model.BatchJobSnapshot) {
	attrs := metric.WithAttributes(
		attribute.String("operation", string(snap.Type)),
		attribute.String("status", string(snap.Status)),
	)
	r.runCounter.Add(ctx, 1, attrs)
	if snap.EndTime != nil {
		r.runDuration.Record(ctx, snap.EndTime.Sub(snap.StartTime).Seconds(), attrs)
	}
}

func (r *OtelRecorder) RecordItemSuccess(ctx context.Context, opType model.OperationType) {
	r.itemCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(opType)),
		attribute.String("outcome", "success"),
	))
}

func (r *OtelRecorder) RecordItemFailure(ctx context.Context, opType model.OperationType, reason string) {
	r.itemCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(opType)),
		attribute.String("outcome", "failure"),
	))
	r.failureCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(opType)),
		attribute.String("reason", reason),
	))
}

// Shutdown flushes and stops the meter provider.
func (r *OtelRecorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

var _ metricsport.MetricRecorder = (*OtelRecorder)(nil)
