package sqlite_test

import (
	"context"
	"errors"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"
	"github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/sqlite"
	config "github.com/jmens/txchain/pkg/txchain/core/config"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
)

type item struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
}

func TestConnectionString(t *testing.T) {
	assert.Equal(t, ":memory:", sqlite.ConnectionString(dbconfig.DatabaseConfig{Database: ":memory:"}))
	assert.Equal(t, "file.db?_fk=1", sqlite.ConnectionString(dbconfig.DatabaseConfig{Database: "file.db", Params: "_fk=1"}))
	assert.Equal(t, "file:x?mode=memory&cache=private",
		sqlite.ConnectionString(dbconfig.DatabaseConfig{Database: "file:x?mode=memory", Params: "cache=private"}))
}

func TestInMemory_RollbackDiscardsSchemaAndData(t *testing.T) {
	ctx := context.Background()
	provider, err := gormadapter.NewProvider(config.NewConfig())
	require.NoError(t, err)
	assert.Equal(t, sqlite.DBType, provider.Type())

	conn, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Batch(ctx, []string{
		"CREATE TABLE item (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(255))",
	}))

	first := &item{Name: "a"}
	require.NoError(t, conn.Insert(ctx, "item", first))
	assert.Equal(t, int64(1), first.ID)

	_, err = conn.Exec(ctx, "INSERT INTO item (id, name) VALUES ('id', ?)", "b")
	require.Error(t, err)
	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrMismatch, sqliteErr.Code)

	var names []string
	require.NoError(t, conn.Query(ctx, &names, "SELECT name FROM item"))
	assert.Equal(t, []string{"a"}, names)

	require.NoError(t, conn.Rollback(ctx))

	names = nil
	err = conn.Query(ctx, &names, "SELECT name FROM item")
	require.Error(t, err)
	assert.True(t, sqlite.IsTableNotExistError(err))
	assert.True(t, conn.IsTableNotExistError(err))

	require.NoError(t, conn.Close())
	assert.Equal(t, tx.StateClosed, conn.State())
}

func TestInMemory_EveryAcquireStartsEmpty(t *testing.T) {
	ctx := context.Background()
	provider, err := gormadapter.NewProvider(config.NewConfig())
	require.NoError(t, err)

	first, err := provider.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Batch(ctx, []string{"CREATE TABLE item (id INTEGER PRIMARY KEY, name TEXT)"}))
	require.NoError(t, first.Commit(ctx))
	require.NoError(t, first.Close())

	second, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer second.Close()
	var names []string
	err = second.Query(ctx, &names, "SELECT name FROM item")
	assert.True(t, second.IsTableNotExistError(err))
}
