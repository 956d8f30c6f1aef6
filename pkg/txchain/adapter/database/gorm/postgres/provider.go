// Package postgres registers the PostgreSQL dialect with the GORM adapter.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DBType is the configured database type handled by this package.
const DBType = "postgres"

// undefinedTable is the SQLSTATE of a missing relation.
const undefinedTable = "42P01"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, IsTableNotExistError)
}

// ConnectionString generates the key/value DSN expected by gorm.io/driver/postgres.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
	if c.Params != "" {
		dsn += " " + c.Params
	}
	return dsn
}

// IsTableNotExistError reports whether err carries SQLSTATE 42P01.
func IsTableNotExistError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
