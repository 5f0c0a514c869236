// Package logging provides listeners that log run boundaries and progress.
package logging

import (
	"context"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// --- Run Listener ---

type LoggingRunListener struct{}

func NewLoggingRunListener() port.RunListener {
	return &LoggingRunListener{}
}

func (l *LoggingRunListener) BeforeRun(ctx context.Context, snap model.BatchJobSnapshot) {
	logger.Infof("RunListener: BeforeRun - Operation: %s, ID: %s, Total: %d", snap.Type, snap.ID, snap.Total)
}

func (l *LoggingRunListener) AfterRun(ctx context.Context, snap model.BatchJobSnapshot) {
	logger.Infof("RunListener: AfterRun - Operation: %s, Status: %s, Completed: %d/%d, Errors: %d",
		snap.Type, snap.Status, snap.Completed, snap.Total, len(snap.Errors))
}

var _ port.RunListener = (*LoggingRunListener)(nil)

// --- Progress Listener ---

type LoggingProgressListener struct{}

func NewLoggingProgressListener() port.ProgressListener {
	return &LoggingProgressListener{}
}

func (l *LoggingProgressListener) OnUpdate(snap model.BatchJobSnapshot) {
	logger.Debugf("ProgressListener: Operation: %s, Status: %s, Progress: %d%% (%d/%d)",
		snap.Type, snap.Status, snap.Progress, snap.Completed, snap.Total)
}

var _ port.ProgressListener = (*LoggingProgressListener)(nil)
