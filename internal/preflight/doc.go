// Package preflight provides readiness checks for the directories and
// external services Marquee depends on.
//
// The checks back the "marquee doctor" command and run once when marqueed
// starts, where failures are logged but do not stop the server. Optional
// features are only checked when they are configured.
package preflight
