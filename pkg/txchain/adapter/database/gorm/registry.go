package gorm

import (
	"fmt"
	"sync"

	dbconfig "github.com/jmens/txchain/pkg/txchain/adapter/database/config"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"

	"gorm.io/gorm"
)

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

// ErrorClassifier reports whether err means that a referenced table does not exist.
type ErrorClassifier func(err error) bool

var (
	dialectorRegistry  = make(map[string]DialectorFactory)
	classifierRegistry = make(map[string]ErrorClassifier)
	dialectorMutex     sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// RegisterErrorClassifier registers the missing-table classifier of a database type.
func RegisterErrorClassifier(dbType string, classifier ErrorClassifier) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	classifierRegistry[dbType] = classifier
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// getErrorClassifier returns the registered classifier for dbType, or nil.
func getErrorClassifier(dbType string) ErrorClassifier {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	return classifierRegistry[dbType]
}
