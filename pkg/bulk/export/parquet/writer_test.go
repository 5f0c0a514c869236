package parquet_test

import (
	"context"
	"io"
	"strings"
	"testing"

	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
	local "github.com/callscope/callscope/pkg/bulk/adapter/storage/local"
	parquetexport "github.com/callscope/callscope/pkg/bulk/export/parquet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreRow struct {
	RecordingID string  `parquet:"name=recording_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quality     float64 `parquet:"name=quality, type=DOUBLE"`
	RecordedOn  string  `parquet:"name=recorded_on, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func byDate(r scoreRow) (string, error) { return "dt=" + r.RecordedOn, nil }

func TestExporter_FlushWritesOneFilePerPartition(t *testing.T) {
	store, err := local.New(storageconfig.StorageConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	e, err := parquetexport.NewExporter(parquetexport.Config{OutputBaseDir: "scores"}, store, new(scoreRow), byDate)
	require.NoError(t, err)

	require.NoError(t, e.Add(
		scoreRow{RecordingID: "rec-1", Quality: 87, RecordedOn: "2026-08-26"},
		scoreRow{RecordingID: "rec-2", Quality: 74, RecordedOn: "2026-08-26"},
		scoreRow{RecordingID: "rec-3", Quality: 91, RecordedOn: "2026-08-27"},
	))
	require.NoError(t, e.Flush(context.Background()))

	var objects []string
	require.NoError(t, store.List(context.Background(), "", "scores/", func(name string) error {
		objects = append(objects, name)
		return nil
	}))
	require.Len(t, objects, 2)

	partitions := map[string]int{}
	for _, name := range objects {
		assert.True(t, strings.HasSuffix(name, ".parquet"), name)
		switch {
		case strings.Contains(name, "dt=2026-08-26"):
			partitions["dt=2026-08-26"]++
		case strings.Contains(name, "dt=2026-08-27"):
			partitions["dt=2026-08-27"]++
		}

		r, err := store.Download(context.Background(), "", name)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, r.Close())
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
	assert.Equal(t, map[string]int{"dt=2026-08-26": 1, "dt=2026-08-27": 1}, partitions)
}

func TestExporter_FlushWithNothingBufferedIsNoOp(t *testing.T) {
	store, err := local.New(storageconfig.StorageConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	e, err := parquetexport.NewExporter(parquetexport.Config{OutputBaseDir: "scores"}, store, new(scoreRow), byDate)
	require.NoError(t, err)
	assert.NoError(t, e.Flush(context.Background()))
}

func TestNewExporter_Validation(t *testing.T) {
	store, err := local.New(storageconfig.StorageConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = parquetexport.NewExporter(parquetexport.Config{}, store, new(scoreRow), byDate)
	assert.Error(t, err)

	_, err = parquetexport.NewExporter(parquetexport.Config{OutputBaseDir: "scores", Compression: "LZO"}, store, new(scoreRow), byDate)
	assert.Error(t, err)
}
