package hsext

import (
	"sync"

	"github.com/magefile/mage/mg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger. A nil logger restores the
// no-op default. This must be called before any build operations.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// NewLogger returns a console logger on stderr whose level follows mage's
// flags: debug with MAGEFILE_DEBUG, info with MAGEFILE_VERBOSE, warn
// otherwise. Stdout is left to the directive stream.
func NewLogger() (*zap.Logger, error) {
	level := zapcore.WarnLevel
	switch {
	case mg.Debug():
		level = zapcore.DebugLevel
	case mg.Verbose():
		level = zapcore.InfoLevel
	}
	return NewLoggerAt(level)
}

// NewLoggerAt is NewLogger with an explicit level.
func NewLoggerAt(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
