// Package metrics provides the concrete observability backends: a
// Prometheus metric recorder and OpenTelemetry tracer/meter implementations
// of the core metrics ports.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	metrics "github.com/callscope/callscope/pkg/bulk/core/metrics"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// PrometheusRecorder implements metrics.MetricRecorder on a dedicated
// Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec
	itemOutcomeCounter *prometheus.CounterVec
	itemFailureCounter *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder with its own registry, including
// the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulk_run_duration_seconds",
			Help:    "Duration of bulk runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulk_run_status_total",
			Help: "Total bulk runs by operation and status.",
		}, []string{"operation", "status"}),
		itemOutcomeCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulk_item_outcome_total",
			Help: "Total item resolutions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		itemFailureCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulk_item_failure_total",
			Help: "Total item failures by operation and reason.",
		}, []string{"operation", "reason"}),
	}

	registry.MustRegister(r.runDurationSeconds)
	registry.MustRegister(r.runStatusCounter)
	registry.MustRegister(r.itemOutcomeCounter)
	registry.MustRegister(r.itemFailureCounter)
	return r
}

// GetRegistry returns the Prometheus registry for exposition.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunStart counts the admission of a run.
func (r *PrometheusRecorder) RecordRunStart(_ context.Context, snap model.BatchJobSnapshot) {
	r.runStatusCounter.WithLabelValues(string(snap.Type), string(snap.Status)).Inc()
	logger.Debugf("Metrics: run '%s' started (%d items).", snap.Type, snap.Total)
}

// RecordRunEnd counts the terminal status and observes the run duration.
func (r *PrometheusRecorder) RecordRunEnd(_ context.Context, snap model.BatchJobSnapshot) {
	r.runStatusCounter.WithLabelValues(string(snap.Type), string(snap.Status)).Inc()
	if snap.EndTime == nil {
		return
	}
	duration := snap.EndTime.Sub(snap.StartTime).Seconds()
	r.runDurationSeconds.WithLabelValues(string(snap.Type), string(snap.Status)).Observe(duration)
	logger.Debugf("Metrics: run '%s' ended as %s. Duration: %.3fs", snap.Type, snap.Status, duration)
}

// RecordItemSuccess counts one successful item resolution.
func (r *PrometheusRecorder) RecordItemSuccess(_ context.Context, opType model.OperationType) {
	r.itemOutcomeCounter.WithLabelValues(string(opType), "success").Inc()
}

// RecordItemFailure counts one failed item resolution by reason.
func (r *PrometheusRecorder) RecordItemFailure(_ context.Context, opType model.OperationType, reason string) {
	r.itemOutcomeCounter.WithLabelValues(string(opType), "failure").Inc()
	r.itemFailureCounter.WithLabelValues(string(opType), reason).Inc()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
