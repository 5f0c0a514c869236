// Package drivers links in all supported database dialectors. The binary
// imports it for side effects.
package drivers

import (
	_ "github.com/callscope/callscope/pkg/recording/gormstore/mysql"
	_ "github.com/callscope/callscope/pkg/recording/gormstore/postgres"
	_ "github.com/callscope/callscope/pkg/recording/gormstore/sqlite"
)
