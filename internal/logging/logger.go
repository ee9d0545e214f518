// Package logging builds the service's zap logger and its logr view.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels used with logr's V().
const (
	DEFAULT = 0
	DEBUG   = 1
	TRACE   = 2
)

// Options configures the logger.
type Options struct {
	// Level is a zap level name ("debug", "info", "warn", "error") or a negative
	// number for logr verbosity beyond debug, e.g. "-2" for TRACE.
	Level string

	// Development switches to the console encoder with stack traces on warnings.
	Development bool
}

// New builds a zap logger and the logr.Logger bridged onto it.
func New(opts Options) (*zap.Logger, logr.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, logr.Discard(), err
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = !opts.Development

	z, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
	}
	return z, zapr.NewLogger(z), nil
}

// ParseLevel accepts a zap level name or an integer level. An empty string is "info".
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var n int8
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		return zapcore.Level(n), nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewTestLogger returns a development logger that prints everything down to TRACE.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	z, err := cfg.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(z)
}
