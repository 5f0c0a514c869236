// Package mysql registers the MySQL dialector with the gormstore.
package mysql

import (
	"errors"

	gormstore "github.com/callscope/callscope/pkg/recording/gormstore"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gormstore.RegisterDialector("mysql", func(dsn string) (gorm.Dialector, error) {
		if dsn == "" {
			return nil, errors.New("MySQL DSN cannot be empty")
		}
		return mysql.Open(dsn), nil
	})
}
