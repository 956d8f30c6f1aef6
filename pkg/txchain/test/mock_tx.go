// Package test provides testify mocks of the tx contracts for use in package tests.
package test

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/jmens/txchain/pkg/txchain/core/tx"
)

// MockConnection is a mock tx.Connection. Method calls are recorded with testify;
// the lifecycle state is tracked from the outcomes of Commit, Rollback and Close so that
// code under test sees realistic State() values.
type MockConnection struct {
	mock.Mock

	mu    sync.Mutex
	state tx.ConnState
	name  string
}

// NewMockConnection returns an open MockConnection.
func NewMockConnection(name string) *MockConnection {
	return &MockConnection{name: name, state: tx.StateOpen}
}

func (m *MockConnection) setState(s tx.ConnState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Batch mocks tx.Executor.Batch.
func (m *MockConnection) Batch(ctx context.Context, statements []string) error {
	args := m.Called(ctx, statements)
	return args.Error(0)
}

// Insert mocks tx.Executor.Insert.
func (m *MockConnection) Insert(ctx context.Context, table string, record interface{}) error {
	args := m.Called(ctx, table, record)
	return args.Error(0)
}

// Exec mocks tx.Executor.Exec.
func (m *MockConnection) Exec(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	called := m.Called(ctx, statement, args)
	return called.Get(0).(int64), called.Error(1)
}

// Query mocks tx.Executor.Query.
func (m *MockConnection) Query(ctx context.Context, dest interface{}, statement string, args ...interface{}) error {
	called := m.Called(ctx, dest, statement, args)
	return called.Error(0)
}

// Quote wraps identifier in double quotes without recording a call.
func (m *MockConnection) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Commit mocks tx.Connection.Commit. A nil error moves the state to StateCommitted,
// an error to StateRolledBack.
func (m *MockConnection) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		m.setState(tx.StateRolledBack)
		return err
	}
	m.setState(tx.StateCommitted)
	return nil
}

// Rollback mocks tx.Connection.Rollback and moves the state to StateRolledBack.
func (m *MockConnection) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.setState(tx.StateRolledBack)
	return args.Error(0)
}

// Close mocks tx.Connection.Close.
func (m *MockConnection) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		m.setState(tx.StateClosedWithError)
		return err
	}
	m.setState(tx.StateClosed)
	return nil
}

// State returns the tracked lifecycle state.
func (m *MockConnection) State() tx.ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Type returns "mock".
func (m *MockConnection) Type() string { return "mock" }

// Name returns the connection name.
func (m *MockConnection) Name() string { return m.name }

// IsTableNotExistError matches the SQLite message used in tests.
func (m *MockConnection) IsTableNotExistError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// MockProvider is a mock tx.ConnectionProvider.
type MockProvider struct {
	mock.Mock
}

// Acquire mocks tx.ConnectionProvider.Acquire.
func (m *MockProvider) Acquire(ctx context.Context) (tx.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tx.Connection), args.Error(1)
}

// Type returns "mock".
func (m *MockProvider) Type() string { return "mock" }

var (
	_ tx.Connection         = (*MockConnection)(nil)
	_ tx.ConnectionProvider = (*MockProvider)(nil)
)
