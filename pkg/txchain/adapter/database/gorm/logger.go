package gorm

import (
	"fmt"
	"strings"
	"time"

	config "github.com/jmens/txchain/pkg/txchain/core/config"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"

	gorm_logger "gorm.io/gorm/logger"
)

// NewGormLogger creates a gorm logger writing through the application logger.
// level is one of the config.LogLevel values; unknown values mean silent.
func NewGormLogger(level string) gorm_logger.Interface {
	return gorm_logger.New(
		NewGormWriter(),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  levelOf(level),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func levelOf(level string) gorm_logger.LogLevel {
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelError:
		return gorm_logger.Error
	case config.LogLevelWarn:
		return gorm_logger.Warn
	case config.LogLevelInfo, config.LogLevelDebug:
		return gorm_logger.Info
	default:
		return gorm_logger.Silent
	}
}

// GormWriter redirects GORM log output to the application logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// Printf implements gorm_logger.Writer. Statement traces go to DEBUG, everything else to INFO.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatementTrace(msg) {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Infof("[GORM] %s", msg)
}

func isStatementTrace(msg string) bool {
	if !strings.Contains(msg, "[") || !strings.Contains(msg, "]") {
		return false
	}
	upper := strings.ToUpper(msg)
	for _, kw := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE"} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
