package gormstore

import (
	"context"
	"errors"
	"time"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
	recording "github.com/callscope/callscope/pkg/recording"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the GORM-backed recording repository.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the configured database and, when cfg.Migrate is set,
// applies the embedded schema migrations.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	factory, err := GetDialectorFactory(cfg.Driver)
	if err != nil {
		return nil, exception.NewBulkError("gormstore", "failed to resolve database driver", err)
	}
	dialector, err := factory(cfg.DSN)
	if err != nil {
		return nil, exception.NewBulkErrorf("gormstore", "failed to create dialector for '%s'", cfg.Driver, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewBulkErrorf("gormstore", "failed to open '%s' connection", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, exception.NewBulkError("gormstore", "failed to get underlying sql.DB", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db, driver: cfg.Driver}
	if cfg.Migrate {
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	logger.Infof("GormStore: connected to '%s' database.", cfg.Driver)
	return store, nil
}

// NewStoreWithDB wraps an existing GORM handle. Used in tests.
func NewStoreWithDB(db *gorm.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Save implements recording.Repository. An existing row with the same ID is
// fully replaced.
func (s *Store) Save(ctx context.Context, rec *recording.Recording) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	if err != nil {
		return exception.NewBulkErrorf("gormstore", "failed to save recording '%s'", rec.ID, err)
	}
	return nil
}

// Get implements recording.Repository.
func (s *Store) Get(ctx context.Context, id string) (*recording.Recording, error) {
	var rec recording.Recording
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, recording.ErrNotFound
	}
	if err != nil {
		return nil, exception.NewBulkErrorf("gormstore", "failed to load recording '%s'", id, err)
	}
	return &rec, nil
}

// List implements recording.Repository. Ordering is recorded_at ascending
// with ID as tiebreaker.
func (s *Store) List(ctx context.Context) ([]*recording.Recording, error) {
	var recs []*recording.Recording
	err := s.db.WithContext(ctx).
		Order("recorded_at asc, id asc").
		Find(&recs).Error
	if err != nil {
		return nil, exception.NewBulkError("gormstore", "failed to list recordings", err)
	}
	return recs, nil
}

// SaveResult implements recording.Repository.
func (s *Store) SaveResult(ctx context.Context, id string, kind recording.AnalysisKind, result *recording.AnalysisResult) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := rec.SetResult(kind, result); err != nil {
		return exception.NewBulkErrorf("gormstore", "failed to set %s result on '%s'", kind, id, err)
	}
	return s.Save(ctx, rec)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ recording.Repository = (*Store)(nil)
