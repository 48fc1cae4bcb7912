// Package store persists favorites, reviews, posts, and affinity snapshots in
// SQLite.
//
// The database lives in the configured data directory and is opened in WAL
// mode with a busy timeout; writes retry briefly on SQLITE_BUSY so the CLI and
// the server can share one file. The schema is embedded and versioned: when
// schema.sql changes, bump schemaVersion and users recreate the database.
//
// Every row is owned by a user id taken from the caller's session. Create
// methods validate their input and return errors classified with the
// services markers so the API can map them to status codes.
package store
