// Package sqlite registers the SQLite dialector with the gormstore.
package sqlite

import (
	"errors"

	gormstore "github.com/callscope/callscope/pkg/recording/gormstore"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gormstore.RegisterDialector("sqlite", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(dsn), nil
	})
}
