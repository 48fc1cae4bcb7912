// Command marquee is the local command-line client for Marquee.
//
// It opens the same configuration, SQLite store and TMDB client as marqueed
// and acts as a single local user (set with --user). Commands print tables by
// default and JSON with --json. The daemon and logs commands start, stop and
// inspect a background marqueed and read its log file.
package main
