// Package export assembles recording exports: CSV summaries for download and
// Parquet files for the analytics warehouse, both written through the
// storage adapter.
package export

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	config "github.com/callscope/callscope/pkg/bulk/core/config"
	csvexport "github.com/callscope/callscope/pkg/bulk/export/csv"
	parquetexport "github.com/callscope/callscope/pkg/bulk/export/parquet"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
	recording "github.com/callscope/callscope/pkg/recording"
)

// analysisRow is the flattened Parquet schema for one analyzed recording.
type analysisRow struct {
	ID                string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Label             string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	CallType          string  `parquet:"name=call_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DurationSeconds   int32   `parquet:"name=duration_seconds, type=INT32"`
	SentimentScore    float64 `parquet:"name=sentiment_score, type=DOUBLE"`
	SentimentCategory string  `parquet:"name=sentiment_category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	QualityScore      float64 `parquet:"name=quality_score, type=DOUBLE"`
	KeywordCount      int32   `parquet:"name=keyword_count, type=INT32"`
	RecordedAt        string  `parquet:"name=recorded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Service writes recording exports through the configured storage backend.
type Service struct {
	repo      recording.Repository
	store     storage.Store
	cfg       config.ExportConfig
	formatter *csvexport.Formatter
}

// NewService builds the export service with the standard recording columns.
func NewService(repo recording.Repository, store storage.Store, cfg config.ExportConfig) (*Service, error) {
	formatter, err := csvexport.NewFormatter(recordingFields())
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, store: store, cfg: cfg, formatter: formatter}, nil
}

// recordingFields is the CSV column layout for recording exports.
func recordingFields() []csvexport.FieldSpec {
	return []csvexport.FieldSpec{
		{Key: "id", Label: "ID"},
		{Key: "label", Label: "Label"},
		{Key: "call_type", Label: "Call Type"},
		{Key: "status", Label: "Status"},
		{Key: "duration_seconds", Label: "Duration (s)"},
		{Key: "sentiment", Label: "Sentiment", Transform: csvexport.Nested("category")},
		{Key: "quality_score", Label: "Quality Score"},
		{Key: "keywords", Label: "Keywords"},
		{Key: "recorded_at", Label: "Recorded At", Transform: csvexport.DateOnly},
	}
}

// ExportCSV renders every recording as CSV and uploads it. It returns the
// object name the file was written to.
func (s *Service) ExportCSV(ctx context.Context) (string, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return "", exception.NewBulkError("export", "failed to list recordings for CSV export", err)
	}

	rows := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, csvRow(rec))
	}

	objectName := path.Join(s.cfg.OutputBaseDir, csvexport.Filename("recordings", time.Now()))
	body := s.formatter.Format(rows)
	if err := s.store.Upload(ctx, "", objectName, strings.NewReader(body), "text/csv"); err != nil {
		return "", exception.NewBulkErrorf("export", "failed to upload CSV export '%s'", objectName, err)
	}
	logger.Infof("Export: wrote %d recordings to '%s'.", len(recs), objectName)
	return objectName, nil
}

// csvRow flattens one recording into the formatter's row shape.
func csvRow(rec *recording.Recording) map[string]interface{} {
	row := map[string]interface{}{
		"id":               rec.ID,
		"label":            rec.Label,
		"call_type":        string(rec.CallType),
		"status":           string(rec.Status),
		"duration_seconds": rec.DurationSeconds,
		"recorded_at":      rec.RecordedAt,
	}
	if rec.Sentiment != nil {
		row["sentiment"] = map[string]interface{}{"category": rec.Sentiment.Category}
	}
	if rec.Quality != nil {
		row["quality_score"] = fmt.Sprintf("%.1f", rec.Quality.Score)
	}
	if rec.Keywords != nil {
		row["keywords"] = strings.Join(rec.Keywords.Keywords, "; ")
	}
	return row
}

// ExportParquet writes one Parquet file per recording date for every call
// that carries at least one analysis result.
func (s *Service) ExportParquet(ctx context.Context) error {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return exception.NewBulkError("export", "failed to list recordings for parquet export", err)
	}

	exporter, err := parquetexport.NewExporter(
		parquetexport.Config{
			OutputBaseDir: s.cfg.OutputBaseDir,
			Compression:   s.cfg.Compression,
		},
		s.store,
		new(analysisRow),
		func(row analysisRow) (string, error) {
			return "dt=" + row.RecordedAt, nil
		},
	)
	if err != nil {
		return err
	}

	exported := 0
	for _, rec := range recs {
		if rec.Sentiment == nil && rec.Quality == nil && rec.Keywords == nil {
			continue
		}
		if err := exporter.Add(parquetRow(rec)); err != nil {
			return err
		}
		exported++
	}
	if exported == 0 {
		logger.Debugf("Export: no analyzed recordings, skipping parquet export.")
		return nil
	}
	return exporter.Flush(ctx)
}

// parquetRow flattens one analyzed recording into the warehouse schema.
func parquetRow(rec *recording.Recording) analysisRow {
	row := analysisRow{
		ID:              rec.ID,
		Label:           rec.Label,
		CallType:        string(rec.CallType),
		DurationSeconds: int32(rec.DurationSeconds),
		RecordedAt:      rec.RecordedAt.Format("2006-01-02"),
	}
	if rec.Sentiment != nil {
		row.SentimentScore = rec.Sentiment.Score
		row.SentimentCategory = rec.Sentiment.Category
	}
	if rec.Quality != nil {
		row.QualityScore = rec.Quality.Score
	}
	if rec.Keywords != nil {
		row.KeywordCount = int32(len(rec.Keywords.Keywords))
	}
	return row
}
