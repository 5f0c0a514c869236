package export_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
	local "github.com/callscope/callscope/pkg/bulk/adapter/storage/local"
	config "github.com/callscope/callscope/pkg/bulk/core/config"
	recording "github.com/callscope/callscope/pkg/recording"
	export "github.com/callscope/callscope/pkg/recording/export"
	inmemory "github.com/callscope/callscope/pkg/recording/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*export.Service, *inmemory.Store, storage.Store) {
	t.Helper()
	repo := inmemory.NewStore()
	store, err := local.New(storageconfig.StorageConfig{Type: "local", BaseDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc, err := export.NewService(repo, store, config.ExportConfig{
		OutputBaseDir: "callscope",
		Compression:   "SNAPPY",
	})
	require.NoError(t, err)
	return svc, repo, store
}

func readObject(t *testing.T, store storage.Store, objectName string) string {
	t.Helper()
	rc, err := store.Download(context.Background(), "", objectName)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestExportCSV_WritesAllRecordings(t *testing.T) {
	svc, repo, store := newService(t)
	recordedAt := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(context.Background(), &recording.Recording{
		ID:              "rec-1",
		Label:           "Call with Acme",
		CallType:        recording.CallTypeSales,
		Status:          recording.CallStatusCompleted,
		DurationSeconds: 340,
		Sentiment:       &recording.AnalysisResult{Score: 0.8, Category: "positive"},
		RecordedAt:      recordedAt,
	}))
	require.NoError(t, repo.Save(context.Background(), &recording.Recording{
		ID:              "rec-2",
		Label:           "Support check-in",
		CallType:        recording.CallTypeSupport,
		Status:          recording.CallStatusCompleted,
		DurationSeconds: 120,
		Quality:         &recording.AnalysisResult{Score: 85},
		Keywords:        &recording.AnalysisResult{Keywords: []string{"billing", "refund"}},
		RecordedAt:      recordedAt.Add(time.Hour),
	}))

	objectName, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(objectName, "callscope/recordings_export_"))
	assert.True(t, strings.HasSuffix(objectName, ".csv"))

	lines := strings.Split(strings.TrimRight(readObject(t, store, objectName), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Label,Call Type,Status,Duration (s),Sentiment,Quality Score,Keywords,Recorded At", lines[0])
	assert.Equal(t, "rec-1,Call with Acme,sales,completed,340,positive,,,2026-08-20", lines[1])
	assert.Equal(t, "rec-2,Support check-in,support,completed,120,,85.0,billing; refund,2026-08-20", lines[2])
}

func TestExportCSV_EmptyRepositoryWritesHeaderOnly(t *testing.T) {
	svc, _, store := newService(t)

	objectName, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(readObject(t, store, objectName), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestExportParquet_PartitionsByRecordingDate(t *testing.T) {
	svc, repo, store := newService(t)

	require.NoError(t, repo.Save(context.Background(), &recording.Recording{
		ID:         "rec-1",
		CallType:   recording.CallTypeSales,
		Sentiment:  &recording.AnalysisResult{Score: 0.8, Category: "positive"},
		RecordedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, repo.Save(context.Background(), &recording.Recording{
		ID:         "rec-2",
		CallType:   recording.CallTypeSupport,
		Quality:    &recording.AnalysisResult{Score: 91},
		RecordedAt: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
	}))
	// No analysis result yet, not exported.
	require.NoError(t, repo.Save(context.Background(), &recording.Recording{
		ID:         "rec-3",
		RecordedAt: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, svc.ExportParquet(context.Background()))

	var objects []string
	require.NoError(t, store.List(context.Background(), "", "callscope/", func(objectName string) error {
		objects = append(objects, objectName)
		return nil
	}))
	require.Len(t, objects, 2)

	partitions := map[string]bool{}
	for _, obj := range objects {
		assert.True(t, strings.HasSuffix(obj, ".parquet"))
		switch {
		case strings.HasPrefix(obj, "callscope/dt=2026-08-20/"):
			partitions["2026-08-20"] = true
		case strings.HasPrefix(obj, "callscope/dt=2026-08-21/"):
			partitions["2026-08-21"] = true
		}
	}
	assert.Len(t, partitions, 2)
}

func TestExportParquet_NothingAnalyzedIsANoOp(t *testing.T) {
	svc, repo, _ := newService(t)
	require.NoError(t, repo.Save(context.Background(), &recording.Recording{ID: "rec-1"}))
	assert.NoError(t, svc.ExportParquet(context.Background()))
}
