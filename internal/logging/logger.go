// Package logging provides the process-wide leveled logger.
//
// The logger is zap-backed. Components grab a named sub-logger once at
// package init (logging.Named("dir")) and log printf-style through the
// sugared API.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger *zap.SugaredLogger
	level         = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	once          sync.Once
)

// GetLogger returns the default logger instance.
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = level

		// Set initial log level from environment
		if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
			var parsed zapcore.Level
			if err := parsed.UnmarshalText([]byte(lvl)); err == nil {
				level.SetLevel(parsed)
			}
		}

		l, err := cfg.Build()
		if err != nil {
			// Nothing sensible to log with yet.
			panic("logging: build logger: " + err.Error())
		}
		defaultLogger = l.Sugar().Named("facetfs")
	})
	return defaultLogger
}

// Named returns a sub-logger for the given component name.
func Named(name string) *zap.SugaredLogger {
	return GetLogger().Named(name)
}

// SetDebug raises the global log level to debug.
func SetDebug() {
	level.SetLevel(zapcore.DebugLevel)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.Sync()
	}
}
