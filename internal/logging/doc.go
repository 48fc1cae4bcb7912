// Package logging builds the slog loggers used by the marquee binaries.
//
// Two handlers are available: a console handler that prints
// "timestamp LEVEL component: message key=value" lines, and slog's JSON
// handler with a "ts" time key and lowercase levels. The log viewer in
// internal/logs parses both shapes, so the console layout is load-bearing.
//
// WithContext copies request, user and operation identifiers from a context
// onto a logger, and WarnWithContext / ErrorWithContext enforce the
// event_type and error_hint fields on operator-facing lines.
package logging
