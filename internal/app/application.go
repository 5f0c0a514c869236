// Package app assembles the CallScope dashboard application with fx and
// drives the demo flow: seed recordings, run every bulk analysis, report
// the aggregated scores, and export the results.
package app

import (
	"context"
	"errors"

	"go.uber.org/fx"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	metricsport "github.com/callscope/callscope/pkg/bulk/core/metrics"
	coordinator "github.com/callscope/callscope/pkg/bulk/engine/coordinator"
	eligibility "github.com/callscope/callscope/pkg/bulk/engine/eligibility"
	inframetrics "github.com/callscope/callscope/pkg/bulk/infrastructure/metrics"
	logginglistener "github.com/callscope/callscope/pkg/bulk/listener/logging"
	metricslistener "github.com/callscope/callscope/pkg/bulk/listener/metrics"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
	recording "github.com/callscope/callscope/pkg/recording"
	export "github.com/callscope/callscope/pkg/recording/export"
)

// RunApplication sets up and runs the dashboard application using uber-fx.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) {
	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),

		logger.Module,
		config.Module,
		inframetrics.Module,
		logginglistener.Module,
		metricslistener.Module,
		Module,

		fx.Invoke(fx.Annotate(startDashboard, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // coord *coordinator.Coordinator
			"",              // catalog *recording.Catalog
			"",              // repo recording.Repository
			"",              // exporter *export.Service
			"",              // tracer metricsport.Tracer
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// startDashboard schedules the demo flow on application start.
func startDashboard(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	coord *coordinator.Coordinator,
	catalog *recording.Catalog,
	repo recording.Repository,
	exporter *export.Service,
	tracer metricsport.Tracer,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in dashboard flow: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()
				runDashboardFlow(appCtx, coord, catalog, repo, exporter, tracer)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// runDashboardFlow runs every registered bulk analysis to completion, then
// reports scores and writes the exports.
func runDashboardFlow(
	ctx context.Context,
	coord *coordinator.Coordinator,
	catalog *recording.Catalog,
	repo recording.Repository,
	exporter *export.Service,
	tracer metricsport.Tracer,
) {
	if err := seedDemoRecordings(ctx, repo); err != nil {
		logger.Errorf("Failed to seed demo recordings: %v", err)
		return
	}

	for _, opType := range catalog.Types() {
		if ctx.Err() != nil {
			logger.Warnf("Dashboard flow cancelled before operation '%s'.", opType)
			return
		}
		runOperation(ctx, coord, opType, tracer)
	}

	recs, err := repo.List(ctx)
	if err != nil {
		logger.Errorf("Failed to load recordings for the score summary: %v", err)
		return
	}
	summary := recording.Summarize(recs)
	logger.Infof("Scores: %d recordings, avg quality %.1f, sentiment %v (coverage: sentiment %d%%, quality %d%%, keywords %d%%).",
		summary.TotalRecordings, summary.AverageQualityScore, summary.SentimentDistribution,
		summary.SentimentCoverage, summary.QualityCoverage, summary.KeywordCoverage)

	if objectName, err := exporter.ExportCSV(ctx); err != nil {
		logger.Errorf("CSV export failed: %v", err)
	} else {
		logger.Infof("CSV export written to '%s'.", objectName)
	}
	if err := exporter.ExportParquet(ctx); err != nil {
		logger.Errorf("Parquet export failed: %v", err)
	}
}

// runOperation triggers one bulk operation and waits for its terminal
// status, tracing the whole run.
func runOperation(ctx context.Context, coord *coordinator.Coordinator, opType model.OperationType, tracer metricsport.Tracer) {
	snap, err := coord.Trigger(ctx, opType)
	if errors.Is(err, eligibility.ErrNoEligibleItems) {
		logger.Infof("Operation '%s': nothing to analyze.", opType)
		return
	}
	if err != nil {
		logger.Errorf("Operation '%s' could not start: %v", opType, err)
		tracer.RecordError(ctx, "app", err)
		return
	}

	runCtx, end := tracer.StartRunSpan(ctx, snap)
	defer end()

	final, err := coord.AwaitCompletion(runCtx)
	if err != nil {
		logger.Warnf("Operation '%s' interrupted: %v", opType, err)
		tracer.RecordError(runCtx, "app", err)
		return
	}

	tracer.RecordEvent(runCtx, "bulk.run.finished", map[string]interface{}{
		"status":    final.Status.String(),
		"completed": final.Completed,
		"errors":    len(final.Errors),
	})
	if err := coord.Dismiss(); err != nil {
		logger.Warnf("Operation '%s': could not dismiss finished run: %v", opType, err)
	}
}
