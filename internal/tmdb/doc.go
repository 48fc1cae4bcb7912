// Package tmdb is the content provider boundary: a client for The Movie
// Database v3 REST API covering trending lists, search, title and person
// details, genre discovery, and the genre catalogue.
//
// Every request runs through a circuit breaker and an optional response cache.
// Payloads are decoded into explicit structs and validated before they are
// returned; list entries that fail validation are dropped.
package tmdb
