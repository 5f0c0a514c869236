// Package parquet exports buffered rows as Parquet files through the
// storage adapter, partitioned Hive-style by a caller-supplied key.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// Config holds the exporter settings.
type Config struct {
	// OutputBaseDir prefixes every object name.
	OutputBaseDir string `yaml:"output_base_dir"`
	// Compression selects the Parquet codec: SNAPPY (default), GZIP, NONE.
	Compression string `yaml:"compression"`
}

// Exporter buffers rows grouped by partition key and flushes each partition
// as one Parquet file on Flush. The prototype instance drives schema
// reflection, so T needs parquet struct tags.
type Exporter[T any] struct {
	cfg          Config
	store        storage.Store
	prototype    *T
	partitionKey func(T) (string, error)

	buffered map[string][]T
	total    int
}

// NewExporter creates an Exporter writing through the given store.
func NewExporter[T any](cfg Config, store storage.Store, prototype *T, partitionKey func(T) (string, error)) (*Exporter[T], error) {
	if cfg.OutputBaseDir == "" {
		return nil, exception.NewBulkErrorf("export", "parquet exporter requires output_base_dir")
	}
	if _, err := codec(cfg.Compression); err != nil {
		return nil, err
	}
	return &Exporter[T]{
		cfg:          cfg,
		store:        store,
		prototype:    prototype,
		partitionKey: partitionKey,
		buffered:     make(map[string][]T),
	}, nil
}

// Add buffers rows for a later Flush.
func (e *Exporter[T]) Add(rows ...T) error {
	for _, row := range rows {
		key, err := e.partitionKey(row)
		if err != nil {
			return exception.NewBulkError("export", "failed to derive partition key", err)
		}
		e.buffered[key] = append(e.buffered[key], row)
		e.total++
	}
	return nil
}

// Flush writes one Parquet file per buffered partition and uploads it.
// Partitions fail independently; the combined error reports every one that
// did. The buffer is cleared either way.
func (e *Exporter[T]) Flush(ctx context.Context) error {
	if e.total == 0 {
		logger.Debugf("Parquet exporter: nothing buffered, skipping flush.")
		return nil
	}

	compression, err := codec(e.cfg.Compression)
	if err != nil {
		return err
	}

	var combined *multierror.Error
	for key, rows := range e.buffered {
		objectName := path.Join(e.cfg.OutputBaseDir, key, fmt.Sprintf("data_%s_%s.parquet", time.Now().Format("20060102150405"), model.NewID()[:8]))
		if err := e.writePartition(ctx, objectName, rows, compression); err != nil {
			combined = multierror.Append(combined, err)
			continue
		}
		logger.Infof("Parquet exporter: uploaded partition '%s' (%d rows) to '%s'.", key, len(rows), objectName)
	}

	e.buffered = make(map[string][]T)
	e.total = 0
	return combined.ErrorOrNil()
}

func (e *Exporter[T]) writePartition(ctx context.Context, objectName string, rows []T, compression parquet.CompressionCodec) (err error) {
	// The parquet library panics on some schema faults; turn that into an
	// error for this partition instead of killing the flush.
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewBulkErrorf("export", "parquet writer panicked for '%s': %v", objectName, r)
		}
	}()

	buf := new(bytes.Buffer)
	pw, err := parquetwriter.NewParquetWriterFromWriter(buf, e.prototype, int64(len(rows)))
	if err != nil {
		return exception.NewBulkErrorf("export", "failed to create parquet writer for '%s'", objectName, err)
	}
	pw.CompressionType = compression

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return exception.NewBulkErrorf("export", "failed to write parquet row for '%s'", objectName, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return exception.NewBulkErrorf("export", "failed to finalize parquet file '%s'", objectName, err)
	}

	if err := e.store.Upload(ctx, "", objectName, buf, "application/octet-stream"); err != nil {
		return exception.NewBulkErrorf("export", "failed to upload parquet file '%s'", objectName, err)
	}
	return nil
}

func codec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "", "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, exception.NewBulkErrorf("export", "unsupported parquet compression '%s'", name)
	}
}
