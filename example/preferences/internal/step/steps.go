// Package step provides the steps of the preferences pipeline.
package step

import (
	"context"
	"fmt"

	"github.com/jmens/txchain/example/preferences/internal/domain/model"
	"github.com/jmens/txchain/pkg/txchain/component/diagnostics"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/engine"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// DefaultUserName is the user inserted by the pipeline.
const DefaultUserName = "Horst"

// DefaultPreferences are inserted for the user in this order. The faulty insert runs
// between the second and the third.
var DefaultPreferences = []string{"List Items", "Update Items", "Delete Items"}

// DumpTable labels the joined row set handed to the diagnostics sink.
const DumpTable = "user_preferences"

// faultyPreferenceStatement stores a string literal in the integer primary key column.
// It is the one statement that embeds a literal instead of a bind argument, and it must
// fail on every supported database.
const faultyPreferenceStatement = "INSERT INTO preferences (id, id_user, name) VALUES ('id', ?, 'foo')"

// CreateSchema runs the DDL statements as one batch.
func CreateSchema(sink diagnostics.Sink, ddl []string) engine.Step {
	return engine.NewStep("create-schema", func(ctx context.Context, conn tx.Connection, _ engine.Value) (engine.Value, error) {
		sink.Progress(ctx, "Setup database schema")
		if err := conn.Batch(ctx, ddl); err != nil {
			return nil, err
		}
		return engine.Unit{}, nil
	})
}

// InsertUser inserts a user and yields its generated id (int64).
func InsertUser(sink diagnostics.Sink, name string) engine.Step {
	return engine.NewStep("insert-user", func(ctx context.Context, conn tx.Connection, _ engine.Value) (engine.Value, error) {
		sink.Progress(ctx, "Inserting user %s", name)
		user := &model.User{Name: name}
		if err := conn.Insert(ctx, model.TableUser, user); err != nil {
			return nil, err
		}
		return user.ID, nil
	})
}

// InsertPreference inserts a preference for the user id yielded by the previous step and
// passes that id on.
func InsertPreference(sink diagnostics.Sink, name string) engine.Step {
	return engine.NewStep("insert-preference:"+name, func(ctx context.Context, conn tx.Connection, prev engine.Value) (engine.Value, error) {
		userID, err := engine.Expect[int64](prev)
		if err != nil {
			return nil, err
		}
		sink.Progress(ctx, "Inserting preferences %s for user %d", name, userID)
		if err := conn.Insert(ctx, model.TablePreferences, &model.Preference{IDUser: userID, Name: name}); err != nil {
			return nil, err
		}
		return userID, nil
	})
}

// InsertFaultyPreference inserts a row with a non-numeric primary key when enabled.
// Disabled, it passes the user id through without touching the connection. The progress
// line is printed either way.
func InsertFaultyPreference(sink diagnostics.Sink, enabled bool) engine.Step {
	announce := func(ctx context.Context, prev engine.Value) {
		if userID, err := engine.Expect[int64](prev); err == nil {
			sink.Progress(ctx, "Inserting faulty preferences 'foo' for user %d", userID)
		}
	}

	return engine.Conditional("insert-faulty-preference", enabled, func(ctx context.Context, conn tx.Connection, prev engine.Value) (engine.Value, error) {
		userID, err := engine.Expect[int64](prev)
		if err != nil {
			return nil, err
		}
		announce(ctx, prev)
		if _, err := conn.Exec(ctx, faultyPreferenceStatement, userID); err != nil {
			return nil, err
		}
		return userID, nil
	}).WhenSkipped(announce)
}

// DumpTables reports the user/preference join to the sink.
func DumpTables(sink diagnostics.Sink) engine.Step {
	return engine.NewStep("dump-tables", func(ctx context.Context, conn tx.Connection, _ engine.Value) (engine.Value, error) {
		if _, err := Dump(ctx, conn, sink); err != nil {
			return nil, err
		}
		return engine.Unit{}, nil
	})
}

// Dump queries the user/preference join and hands the rows to sink. A sink error is
// logged and does not fail the dump.
func Dump(ctx context.Context, conn tx.Executor, sink diagnostics.Sink) ([]model.UserPreference, error) {
	sink.Progress(ctx, "Dumping tables")

	query := fmt.Sprintf(
		"SELECT u.id, u.name AS username, p.name AS pref FROM %s u JOIN %s p ON u.id = p.id_user ORDER BY p.id",
		conn.Quote(model.TableUser), conn.Quote(model.TablePreferences))

	var rows []model.UserPreference
	if err := conn.Query(ctx, &rows, query); err != nil {
		return nil, err
	}
	if err := sink.Rows(ctx, DumpTable, rows); err != nil {
		logger.Warnf("Diagnostics sink failed for '%s': %v", DumpTable, err)
	}
	return rows, nil
}

// Inspection dumps the tables after a rollback.
func Inspection(sink diagnostics.Sink) engine.InspectFunc {
	return func(ctx context.Context, conn tx.Connection) error {
		_, err := Dump(ctx, conn, sink)
		return err
	}
}

// Pipeline returns the full step chain: schema, user, two preferences, the optional
// faulty insert, the last preference and the dump.
func Pipeline(sink diagnostics.Sink, ddl []string, forceDBError bool) []engine.Step {
	return []engine.Step{
		CreateSchema(sink, ddl),
		InsertUser(sink, DefaultUserName),
		InsertPreference(sink, DefaultPreferences[0]),
		InsertPreference(sink, DefaultPreferences[1]),
		InsertFaultyPreference(sink, forceDBError),
		InsertPreference(sink, DefaultPreferences[2]),
		DumpTables(sink),
	}
}
