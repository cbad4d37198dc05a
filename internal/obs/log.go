// Package obs holds the observability plumbing shared by the server and the
// client SDK: the process-wide zap logger and Prometheus metrics.
package obs

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.Mutex
	logger   *zap.Logger
)

// Logger returns the shared structured logger. Before InitLogger runs it
// falls back to a production logger at info level.
func Logger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// InitLogger configures the shared logger with the given level ("debug",
// "info", "warn", "error"). An unparsable level is an error and leaves the
// previous logger in place.
func InitLogger(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	loggerMu.Lock()
	logger = zl
	loggerMu.Unlock()
	return nil
}

// SetLogger swaps the shared logger. Intended for tests.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger().Sync()
}
