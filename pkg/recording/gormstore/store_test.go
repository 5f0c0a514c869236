package gormstore_test

import (
	"context"
	"testing"
	"time"

	recording "github.com/callscope/callscope/pkg/recording"
	gormstore "github.com/callscope/callscope/pkg/recording/gormstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*gormstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gormstore.NewStoreWithDB(gdb, "postgres"), mock
}

func recordingColumns() []string {
	return []string{
		"id", "label", "call_type", "status",
		"duration_seconds", "transcript_word_count",
		"sentiment", "quality", "keywords",
		"recorded_at", "created_at", "updated_at",
	}
}

func TestGet_DecodesSerializedAnalysisResult(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "recordings" WHERE id =`).
		WithArgs("rec-1", 1).
		WillReturnRows(sqlmock.NewRows(recordingColumns()).AddRow(
			"rec-1", "Call with Acme", "sales", "completed",
			340, 512,
			`{"score":0.82,"category":"positive","analyzed_at":"2026-08-01T10:00:00Z"}`, nil, nil,
			now, now, now,
		))

	rec, err := store.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Call with Acme", rec.Label)
	assert.Equal(t, recording.CallTypeSales, rec.CallType)
	require.NotNil(t, rec.Sentiment)
	assert.Equal(t, "positive", rec.Sentiment.Category)
	assert.InDelta(t, 0.82, rec.Sentiment.Score, 1e-9)
	assert.Nil(t, rec.Quality)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MissingRowIsErrNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "recordings" WHERE id =`).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows(recordingColumns()))

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, recording.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_OrdersByRecordedAtThenID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "recordings" ORDER BY recorded_at asc, id asc`).
		WillReturnRows(sqlmock.NewRows(recordingColumns()).
			AddRow("rec-1", "First", "sales", "completed", 100, 50, nil, nil, nil, now, now, now).
			AddRow("rec-2", "Second", "support", "completed", 200, 150, nil, nil, nil, now, now, now))

	recs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-1", recs[0].ID)
	assert.Equal(t, "rec-2", recs[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UpsertsByID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "recordings" .* ON CONFLICT \("id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Save(context.Background(), &recording.Recording{
		ID:         "rec-9",
		Label:      "Renewal call",
		CallType:   recording.CallTypeSupport,
		Status:     recording.CallStatusCompleted,
		RecordedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
