// Package services defines shared utilities consumed by the HTTP handlers, the
// CLI, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, acting user IDs, and operation
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses and error codes.
//
// Use these helpers when wiring new handlers so operational behaviour (error
// handling, observability) stays uniform across the service.
package services
