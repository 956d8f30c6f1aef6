// Package sqlite registers the SQLite dialect with the GORM adapter.
package sqlite

import (
	"errors"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DBType is the configured database type handled by this package.
const DBType = "sqlite"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, IsTableNotExistError)
}

// ConnectionString returns the DSN for cfg: the file path, or ":memory:", followed by
// cfg.Params as query parameters.
func ConnectionString(cfg dbconfig.DatabaseConfig) string {
	if cfg.Params == "" {
		return cfg.Database
	}
	sep := "?"
	if strings.Contains(cfg.Database, "?") {
		sep = "&"
	}
	return cfg.Database + sep + strings.TrimPrefix(cfg.Params, "?")
}

// IsTableNotExistError reports whether err is SQLite's "no such table" error.
func IsTableNotExistError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrError && strings.Contains(sqliteErr.Error(), "no such table")
}
