package metrics

import (
	"context"

	"go.uber.org/fx"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	metricsport "github.com/callscope/callscope/pkg/bulk/core/metrics"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// NewMetricRecorderProvider selects the metric backend from configuration:
// disabled metrics get the no-op, "otlp" gets the push recorder with its
// lifecycle hook, anything else gets Prometheus.
func NewMetricRecorderProvider(lc fx.Lifecycle, cfg *config.Config) (metricsport.MetricRecorder, error) {
	mc := cfg.Callscope.Metrics
	if !mc.Enabled {
		return metricsport.NewNoOpMetricRecorder(), nil
	}

	if mc.Backend == "otlp" {
		recorder, err := NewOtelRecorder(context.Background(), mc)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error { return recorder.Shutdown(ctx) },
		})
		logger.Infof("Metrics: OTLP recorder enabled (endpoint '%s').", mc.Endpoint)
		return recorder, nil
	}

	logger.Infof("Metrics: Prometheus recorder enabled.")
	return NewPrometheusRecorder(), nil
}

// NewTracerProvider provides the run tracer: OpenTelemetry when tracing is
// enabled, the no-op otherwise.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config) (metricsport.Tracer, error) {
	tc := cfg.Callscope.Metrics.Tracing
	if !tc.Enabled {
		return metricsport.NewNoOpTracer(), nil
	}

	tracer, err := NewOtelTracer(context.Background(), tc)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return tracer.Shutdown(ctx) },
	})
	logger.Infof("Tracing: OTLP tracer enabled (endpoint '%s', exporter '%s').", tc.Endpoint, tc.Exporter)
	return tracer, nil
}

// Module provides the observability backends to fx.
var Module = fx.Options(
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProvider),
)
