package mysql_test

import (
	"errors"
	"fmt"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	"github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/mysql"
)

func TestConnectionString(t *testing.T) {
	dsn, err := mysql.ConnectionString(dbconfig.DatabaseConfig{
		Host: "db", Port: 3306, User: "sa", Password: "secret", Database: "prefs", Params: "charset=utf8mb4",
	})
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sa", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "prefs", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Equal(t, "0", parsed.Params["autocommit"])

	_, err = mysql.ConnectionString(dbconfig.DatabaseConfig{Params: "%zz"})
	assert.Error(t, err)
}

func TestConnectionString_AutocommitCannotBeEnabled(t *testing.T) {
	dsn, err := mysql.ConnectionString(dbconfig.DatabaseConfig{Host: "db", Port: 3306, Database: "prefs"})
	require.NoError(t, err)
	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "0", parsed.Params["autocommit"])

	dsn, err = mysql.ConnectionString(dbconfig.DatabaseConfig{Host: "db", Port: 3306, Database: "prefs", Params: "autocommit=1"})
	require.NoError(t, err)
	parsed, err = gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "0", parsed.Params["autocommit"])
}

func TestIsTableNotExistError(t *testing.T) {
	missing := &gomysql.MySQLError{Number: 1146, Message: "Table 'prefs.user' doesn't exist"}
	assert.True(t, mysql.IsTableNotExistError(fmt.Errorf("query: %w", missing)))
	assert.False(t, mysql.IsTableNotExistError(&gomysql.MySQLError{Number: 1062}))
	assert.False(t, mysql.IsTableNotExistError(errors.New("doesn't exist")))
}
