// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger used across gemchat.
//
// The TUI owns the terminal, so the logger always writes to a file; anything
// printed to stderr would corrupt the display. When even the log file cannot
// be opened the logger degrades to a nop rather than failing startup.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath returns the default log location (~/.gemchat/gemchat.log).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gemchat", "gemchat.log"), nil
}

// NewLogger creates a file-backed logger at the given level. An unknown level
// falls back to info; an unopenable path falls back to a nop logger.
func NewLogger(level, path string) *zap.Logger {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return zap.NewNop()
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zap.NewNop()
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return zap.NewNop()
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(file),
		parseLevel(level),
	)
	return zap.New(core)
}

// Nop returns a logger that discards everything. For tests and for callers
// that have not set up logging yet.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
