// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package logging provides centralized zerolog-based logging for the
// attention-map server.
//
// Initialize once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
// then log through the package-level helpers:
//
//	logging.Info().Str("event_id", id).Msg("event accepted")
//	logging.Error().Err(err).Msg("pipeline stage failed")
//
// Always terminate a chain with .Msg() or .Send() — a chain left dangling
// never emits.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	global zerolog.Logger = zerolog.New(io.Discard)
)

// Config controls how the global logger is initialized.
type Config struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string
	// Format is one of json, console (default: json).
	Format string
	// Caller adds the calling file:line to every log line.
	Caller bool
}

// Init configures the global logger. Safe to call more than once (e.g. in
// tests); the most recent call wins.
func Init(cfg Config) {
	level := parseLevel(cfg.Level)

	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Caller {
		l = l.Caller()
	}

	mu.Lock()
	global = l.Logger()
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return logger().Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return logger().Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return logger().Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return logger().Error() }

// Fatal starts a fatal-level log event. Terminating it with .Msg() or
// .Send() calls os.Exit(1) after the line is written.
func Fatal() *zerolog.Event { return logger().Fatal() }

// With returns a child logger context for attaching fields once and reusing
// it across several log statements (e.g. within a single pipeline job).
func With() zerolog.Context { return logger().With() }
