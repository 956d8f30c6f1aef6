// Package mysql registers the MySQL dialect with the GORM adapter.
package mysql

import (
	"errors"
	"fmt"
	"net/url"

	gomysql "github.com/go-sql-driver/mysql"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DBType is the configured database type handled by this package.
const DBType = "mysql"

// errNoSuchTable is MySQL's ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

const sessionAutocommit = "autocommit"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		dsn, err := ConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, IsTableNotExistError)
}

// ConnectionString builds the go-sql-driver DSN for cfg. cfg.Params is parsed as a URL
// query string and passed through as driver parameters.
//
// The session always runs with autocommit=0, sent by the driver as SET on connect. MySQL
// still commits implicitly on DDL, but the statements after it stay in a transaction the
// rollback can undo.
func ConnectionString(cfg dbconfig.DatabaseConfig) (string, error) {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true

	if cfg.Params != "" {
		values, err := url.ParseQuery(cfg.Params)
		if err != nil {
			return "", fmt.Errorf("invalid mysql params %q: %w", cfg.Params, err)
		}
		mc.Params = make(map[string]string, len(values)+1)
		for k := range values {
			mc.Params[k] = values.Get(k)
		}
	}
	if mc.Params == nil {
		mc.Params = make(map[string]string, 1)
	}
	mc.Params[sessionAutocommit] = "0"
	return mc.FormatDSN(), nil
}

// IsTableNotExistError reports whether err is MySQL's ER_NO_SUCH_TABLE.
func IsTableNotExistError(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errNoSuchTable
}
