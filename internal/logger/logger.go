package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the application logger. Server modes (web, MCP) use JSON
// encoding; one-shot CLI commands use console encoding so diagnostics stay
// readable on a terminal.
func New(json, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

// Nop returns a logger that discards everything. Used as the default in
// constructors so callers can omit logging wiring in tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Sync flushes any buffered log entries. Safe to call on a nil logger and
// before application exit.
func Sync(l *zap.Logger) {
	if l == nil {
		return
	}
	_ = l.Sync()
}
