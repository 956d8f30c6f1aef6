package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"

	"gorm.io/gorm"
)

// Connection implements tx.Connection on a GORM transaction.
type Connection struct {
	name       string
	dbType     string
	db         *gorm.DB
	sqlDB      *sql.DB
	tx         *gorm.DB
	classifier ErrorClassifier

	mu    sync.Mutex
	state tx.ConnState
}

func newConnection(name, dbType string, db *gorm.DB, sqlDB *sql.DB, txDB *gorm.DB, classifier ErrorClassifier) *Connection {
	return &Connection{
		name:       name,
		dbType:     dbType,
		db:         db,
		sqlDB:      sqlDB,
		tx:         txDB,
		classifier: classifier,
		state:      tx.StateOpen,
	}
}

// Name returns the configured connection name.
func (c *Connection) Name() string { return c.name }

// Type returns the database type.
func (c *Connection) Type() string { return c.dbType }

// State returns the lifecycle state.
func (c *Connection) State() tx.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) open() (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != tx.StateOpen {
		return nil, fmt.Errorf("connection '%s' has no open transaction (state %s)", c.name, c.state)
	}
	return c.tx, nil
}

// Batch executes statements in order, stopping at the first error.
func (c *Connection) Batch(ctx context.Context, statements []string) error {
	for i, stmt := range statements {
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d of %d: %w", i+1, len(statements), err)
		}
	}
	return nil
}

// Insert creates record in table and fills its auto-increment key.
func (c *Connection) Insert(ctx context.Context, table string, record interface{}) error {
	db, err := c.open()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Table(table).Create(record).Error
}

// Exec executes a single statement in the transaction.
func (c *Connection) Exec(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	db, err := c.open()
	if err != nil {
		return 0, err
	}
	result := db.WithContext(ctx).Exec(statement, args...)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Query scans the rows of statement into dest. After a rollback the query runs on the
// connection's own pool, which still sees the database as it is outside the transaction.
func (c *Connection) Query(ctx context.Context, dest interface{}, statement string, args ...interface{}) error {
	c.mu.Lock()
	var db *gorm.DB
	switch c.state {
	case tx.StateOpen:
		db = c.tx
	case tx.StateCommitted, tx.StateRolledBack:
		db = c.db
	}
	state := c.state
	c.mu.Unlock()

	if db == nil {
		return fmt.Errorf("connection '%s' is %s", c.name, state)
	}
	return db.WithContext(ctx).Raw(statement, args...).Scan(dest).Error
}

// Quote quotes identifier with the dialect's quoting rules.
func (c *Connection) Quote(identifier string) string {
	var b strings.Builder
	c.db.Dialector.QuoteTo(&b, identifier)
	return b.String()
}

// Commit commits the transaction. A failed commit leaves the transaction finished, so
// the state becomes StateRolledBack.
func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != tx.StateOpen {
		return fmt.Errorf("cannot commit connection '%s' in state %s", c.name, c.state)
	}
	if err := c.tx.Commit().Error; err != nil {
		c.state = tx.StateRolledBack
		return err
	}
	c.state = tx.StateCommitted
	return nil
}

// Rollback rolls the transaction back. Only one attempt is made; the state is
// StateRolledBack afterwards whether or not the driver reported an error.
func (c *Connection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != tx.StateOpen {
		return fmt.Errorf("cannot roll back connection '%s' in state %s", c.name, c.state)
	}
	c.state = tx.StateRolledBack
	err := c.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		// The driver already ended the transaction, e.g. after context cancellation.
		return nil
	}
	return err
}

// Close rolls back an open transaction and closes the pool. Only the first call does work.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsClosed() {
		return nil
	}

	var result *multierror.Error
	if c.state == tx.StateOpen {
		if err := c.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
			result = multierror.Append(result, fmt.Errorf("rollback on close: %w", err))
		}
	}
	if err := c.sqlDB.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close pool: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		c.state = tx.StateClosedWithError
		return err
	}
	c.state = tx.StateClosed
	logger.Debugf("Database connection '%s' closed.", c.name)
	return nil
}

// IsTableNotExistError reports whether err means a referenced table does not exist.
func (c *Connection) IsTableNotExistError(err error) bool {
	if err == nil {
		return false
	}
	if c.classifier != nil {
		return c.classifier(err)
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "does not exist")
}

var _ tx.Connection = (*Connection)(nil)
