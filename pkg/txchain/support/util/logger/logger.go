// Package logger provides the levelled logger shared by every txchain package.
// Messages go through a single *log.Logger so tests and the bootstrap can redirect them.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is used for step inputs/outputs and SQL traces.
	LevelDebug LogLevel = iota
	// LevelInfo is used for step progress and run outcomes.
	LevelInfo
	// LevelWarn is used for secondary failures that do not change a run's outcome.
	LevelWarn
	// LevelError is used for failures surfaced to the caller.
	LevelError
	// LevelFatal terminates the process after logging.
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// ParseLevel converts a level name (case-insensitive) into a LogLevel.
// The second return value is false for unknown names.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// SetLogLevel sets the global log level.
// Unknown values fall back to INFO and a warning is written to the log output.
func SetLogLevel(level string) {
	parsed, ok := ParseLevel(level)
	mu.Lock()
	logLevel = parsed
	mu.Unlock()
	if !ok {
		Warnf("Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// Level returns the current global log level.
func Level() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func logf(level LogLevel, format string, v ...interface{}) {
	if Level() > level {
		return
	}
	std.Printf("["+level.String()+"] "+format, v...)
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	logf(LevelDebug, format, v...)
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	logf(LevelInfo, format, v...)
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	logf(LevelWarn, format, v...)
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	logf(LevelError, format, v...)
}

// Fatalf logs a FATAL message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[FATAL] "+format, v...)
}
