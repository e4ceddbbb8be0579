// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the zap loggers used across projectmap.
package logging

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by Config.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the log level and encoding.
type Config struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks the level and format are known.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("log format must be %q or %q, got %q", FormatJSON, FormatConsole, c.Format)
	}

	return nil
}

// New creates a logger writing to out.
func New(cfg Config, out io.Writer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := zapcore.ParseLevel(cfg.Level)
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(out)), level)

	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == FormatConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		return zapcore.NewConsoleEncoder(encoderCfg)
	}

	return zapcore.NewJSONEncoder(encoderCfg)
}

// Sync flushes logger, ignoring the harmless errors returned when syncing a
// terminal or pipe.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()

	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}

	return err
}
