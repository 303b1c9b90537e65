// Package logging builds the zap logger of the oed command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at level (debug, info, warn, error). development
// switches to the human readable console encoder with caller information.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	return logger, nil
}

// NewTestLogger returns a development logger at debug level.
func NewTestLogger() *zap.Logger {
	logger, err := New("debug", true)
	if err != nil {
		return zap.NewNop()
	}

	return logger
}
