/*
Package log provides structured logging for certkeep based on zerolog.

The package wraps rs/zerolog with a small API: a global logger initialized
once at process start, child-logger constructors for common fields, and
level helpers for simple messages.

# Architecture

	┌──────────────── LOGGING ────────────────┐
	│                                          │
	│  ┌────────────────────────────┐          │
	│  │         Init(Config)       │          │
	│  │  - Level: debug..error     │          │
	│  │  - JSONOutput: true/false  │          │
	│  │  - Output: io.Writer       │          │
	│  └─────────────┬──────────────┘          │
	│                │                         │
	│  ┌─────────────▼──────────────┐          │
	│  │       Global Logger        │          │
	│  │  zerolog.Logger with       │          │
	│  │  timestamp                 │          │
	│  └─────────────┬──────────────┘          │
	│                │                         │
	│  ┌─────────────▼──────────────┐          │
	│  │      Child Loggers         │          │
	│  │  WithComponent("issuer")   │          │
	│  │  WithFQDN("x.example.com") │          │
	│  │  WithEvent("install")      │          │
	│  └────────────────────────────┘          │
	└──────────────────────────────────────────┘

# Usage

Initialization (once, in main):

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component loggers:

	logger := log.WithComponent("cron")
	logger.Info().Str("tag", tag).Msg("renewal job armed")

Simple helpers:

	log.Info("daemon started")
	log.Errorf("issuance failed", err)

# Output Formats

JSON output (for log aggregation):

	{"level":"info","component":"issuer","time":"...","message":"certificate issued"}

Console output (human-readable, default for interactive use):

	2025-01-02T15:04:05Z INF certificate issued component=issuer

# Integration Points

Every certkeep package logs through this package. The daemon initializes it
before any other component is constructed.
*/
package log
