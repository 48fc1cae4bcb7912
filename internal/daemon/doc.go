// Package daemon coordinates the long-running marqueed process.
//
// It owns the HTTP listener, a flock-based lock in the data directory that
// keeps two servers off the same database, and periodic background jobs. The
// expired-story sweep is always registered; callers add others with WithJob.
// Request handling lives in internal/api.
package daemon
