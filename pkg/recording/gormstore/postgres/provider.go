// Package postgres registers the PostgreSQL dialector with the gormstore.
package postgres

import (
	"errors"

	gormstore "github.com/callscope/callscope/pkg/recording/gormstore"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gormstore.RegisterDialector("postgres", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("PostgreSQL DSN cannot be empty")
		}
		return postgres.Open(dsn), nil
	})
}
