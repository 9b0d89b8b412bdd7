// Package logging builds the structured logger shared by every component.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the logger is built.
type Options struct {
	// Verbose enables V(1) messages.
	Verbose bool
	// Production switches to the JSON encoder.
	Production bool
}

// New returns a logr.Logger backed by zap. When zap fails to build it falls back
// to a no-op logger rather than failing startup.
func New(opts Options) logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	if opts.Production {
		cfg = zap.NewProductionConfig()
	}
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapr.NewLogger(zapLogger)
}

// FromCore wraps an existing zap core, mostly useful for observing logs in tests.
func FromCore(core zapcore.Core) logr.Logger {
	return zapr.NewLogger(zap.New(core))
}
