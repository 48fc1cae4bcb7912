package tmdb

import (
	"fmt"
	"time"

	"marquee/internal/services"
)

var (
	// ErrNotFound reports a 404 from TMDB.
	ErrNotFound = fmt.Errorf("tmdb: %w", services.ErrNotFound)
	// ErrUnavailable reports that the circuit breaker is rejecting requests.
	ErrUnavailable = fmt.Errorf("tmdb: %w", services.ErrUnavailable)
)

// StatusError reports a non-200, non-404 TMDB response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Endpoint, e.StatusCode, e.Latency)
}

func (e *StatusError) Unwrap() error { return services.ErrUpstream }

// abandonedError marks a request whose caller cancelled or timed out. The
// breaker ignores it since it says nothing about TMDB's health.
type abandonedError struct{ err error }

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }
