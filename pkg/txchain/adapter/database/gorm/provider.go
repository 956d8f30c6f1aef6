package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	config "github.com/jmens/txchain/pkg/txchain/core/config"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"

	"gorm.io/gorm"
)

// Provider implements tx.ConnectionProvider with GORM.
// Every Acquire opens a new pool and begins a transaction on it, so a run never shares
// its connection. With a ":memory:" SQLite database this also means every run starts on
// an empty database.
type Provider struct {
	name      string
	dbConfig  dbconfig.DatabaseConfig
	isolation sql.IsolationLevel
	sqlLevel  string
}

// NewProvider resolves the database configuration referenced by
// txchain.infrastructure.db_ref and returns a Provider for it.
//
// Parameters:
//
//	cfg: The application configuration. Its pipeline isolation level and SQL log level
//	     are applied to every connection the Provider acquires.
//
// Returns:
//   - The Provider. No connection is opened until Acquire.
//   - An error if the reference is missing, cannot be decoded, or names an unregistered dialect.
func NewProvider(cfg *config.Config) (*Provider, error) {
	name := cfg.Txchain.Infrastructure.DBRef
	rawConfig, ok := cfg.Txchain.Database[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found in txchain.database", name)
	}

	var dbConfig dbconfig.DatabaseConfig
	if err := mapstructure.Decode(rawConfig, &dbConfig); err != nil {
		return nil, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	if _, err := GetDialectorFactory(dbConfig.Type); err != nil {
		return nil, fmt.Errorf("database configuration '%s': %w", name, err)
	}

	return &Provider{
		name:      name,
		dbConfig:  dbConfig,
		isolation: tx.ParseIsolationLevel(cfg.Txchain.Pipeline.IsolationLevel),
		sqlLevel:  cfg.Txchain.System.Logging.SQLLevel,
	}, nil
}

// Type returns the database type.
func (p *Provider) Type() string {
	return p.dbConfig.Type
}

// Acquire opens a connection pool, verifies it and begins a transaction.
// Anything opened is closed again when a later stage fails.
func (p *Provider) Acquire(ctx context.Context) (tx.Connection, error) {
	logger.Infof("Establishing database connection '%s' (%s).", p.name, p.dbConfig.Type)

	db, err := p.connect()
	if err != nil {
		return nil, exception.NewConnectionFailure("provider", fmt.Sprintf("failed to open connection '%s'", p.name), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, exception.NewConnectionFailure("provider", "failed to get underlying sql.DB", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		closeQuietly(p.name, sqlDB)
		return nil, exception.NewConnectionFailure("provider", fmt.Sprintf("connection '%s' is not reachable", p.name), err)
	}

	txDB := db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: p.isolation})
	if txDB.Error != nil {
		closeQuietly(p.name, sqlDB)
		return nil, exception.NewConnectionFailure("provider", fmt.Sprintf("failed to begin transaction on '%s'", p.name), txDB.Error)
	}

	logger.Infof("Database connection '%s' established, transaction started.", p.name)
	return newConnection(p.name, p.dbConfig.Type, db, sqlDB, txDB, getErrorClassifier(p.dbConfig.Type)), nil
}

// connect establishes a GORM connection based on the provider's DatabaseConfig.
func (p *Provider) connect() (*gorm.DB, error) {
	dialectorFactory, err := GetDialectorFactory(p.dbConfig.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := dialectorFactory(p.dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", p.dbConfig.Type, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewGormLogger(p.sqlLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Apply pool settings
	if p.dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(p.dbConfig.Pool.MaxOpenConns)
	}
	if p.dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(p.dbConfig.Pool.MaxIdleConns)
	}
	if p.dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(p.dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return db, nil
}

func closeQuietly(name string, sqlDB *sql.DB) {
	if err := sqlDB.Close(); err != nil {
		logger.Warnf("Failed to close connection '%s' after a failed acquire: %v", name, err)
	}
}

var _ tx.ConnectionProvider = (*Provider)(nil)
