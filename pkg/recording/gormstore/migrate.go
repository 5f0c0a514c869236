package gormstore

import (
	"database/sql"
	"embed"
	"fmt"

	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsTable = "callscope_schema_migrations"

// databaseDriver builds the migrate driver matching the store's dialector.
func databaseDriver(driver string, sqlDB *sql.DB) (database.Driver, error) {
	switch driver {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: migrationsTable})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database driver for migration: %s", driver)
	}
}

// Migrate applies all pending embedded schema migrations. An up-to-date
// schema is not an error.
func (s *Store) Migrate() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return exception.NewBulkError("gormstore", "failed to get underlying sql.DB for migration", err)
	}

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return exception.NewBulkError("gormstore", "failed to create migration source", err)
	}
	dbDriver, err := databaseDriver(s.driver, sqlDB)
	if err != nil {
		return exception.NewBulkError("gormstore", "failed to create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, s.driver, dbDriver)
	if err != nil {
		return exception.NewBulkError("gormstore", "failed to create migrate instance", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return exception.NewBulkErrorf("gormstore", "migration failed for driver '%s'", s.driver, err)
	}
	logger.Infof("GormStore: schema migrations applied for '%s'.", s.driver)
	return nil
}
