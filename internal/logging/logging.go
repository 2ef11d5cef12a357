// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the process logger.
type Options struct {
	// Level is trace, debug, info, warn, error or disabled.
	Level string
	// Path is the log file. Empty means stderr.
	Path string
	// Console switches to zerolog's human-readable writer.
	Console bool
}

// Setup builds the process logger, installs it as the zerolog global
// logger and returns it with a closer for the underlying file.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	w, closer, err := openOutput(opts.Path)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log output: %w", err)
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opts.Path != ""}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := New(w, opts.Level)
	log.Logger = logger
	return logger, closer, nil
}

// New returns a timestamped logger writing to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", "genscene").
		Logger()
}

// Component returns a child of the global logger tagged with component.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// ParseLevel converts a config level to a zerolog level. Unknown values
// map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func openOutput(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if path == "" {
		return os.Stderr, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
