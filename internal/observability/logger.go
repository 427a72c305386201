// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability provides structured logging and Prometheus metrics
// for the engine's stages.
//
// Every command builds one logger carrying a run_id, and each stage derives
// a child logger with a stage field:
//
//	log := observability.NewLogger(cfg.Logging).With().Str("run_id", id).Logger()
//	stageLog := observability.WithStage(log, "filter")
//
// Metrics live in a private registry so tests and repeated runs never
// collide on registration. They can be flushed to a node-exporter textfile:
//
//	m := observability.NewMetrics("cord_engine")
//	m.DocumentsLoaded.Add(42)
//	m.WriteTextfile("/var/lib/node_exporter/cord_engine.prom")
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// NewLogger creates a zerolog logger from configuration, writing to stdout
// or stderr as configured.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	var out io.Writer = os.Stderr
	if strings.EqualFold(cfg.Output, "stdout") {
		out = os.Stdout
	}
	return NewLoggerTo(out, cfg)
}

// NewLoggerTo creates a logger writing to w. Console and pretty formats use
// zerolog's human-readable writer; anything else emits JSON lines.
func NewLoggerTo(w io.Writer, cfg types.LoggingConfig) zerolog.Logger {
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		With().Timestamp().Logger().
		Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// WithRun adds the run identifier to a logger.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithStage adds the pipeline stage name to a logger.
func WithStage(logger zerolog.Logger, stage string) zerolog.Logger {
	return logger.With().Str("stage", stage).Logger()
}

// IntoContext attaches logger to ctx so that helpers further down the call
// chain can retrieve it with zerolog.Ctx.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}
