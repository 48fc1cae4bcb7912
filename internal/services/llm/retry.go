package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marquee/internal/services"
)

// statusError is a non-2xx response from the provider.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func newStatusError(resp *http.Response, body []byte) *statusError {
	return &statusError{
		code:       resp.StatusCode,
		body:       strings.TrimSpace(string(body)),
		retryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.code, e.body)
}

// Unwrap maps rejected credentials to a configuration problem.
func (e *statusError) Unwrap() error {
	switch e.code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrConfiguration
	default:
		return services.ErrUpstream
	}
}

func (e *statusError) transient() bool {
	return e.code == http.StatusRequestTimeout || e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// blankReplyError is a 2xx response whose choices carried no payload.
type blankReplyError struct {
	op      string
	finish  string
	refusal string
	snippet string
}

func (e *blankReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finish, e.refusal, e.snippet)
}

func (e *blankReplyError) Unwrap() error { return services.ErrUpstream }

// backoff doubles from base up to ceiling between attempts.
type backoff struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleep    func(time.Duration)
}

func defaultBackoff() backoff {
	return backoff{attempts: 5, base: time.Second, ceiling: 10 * time.Second}
}

func (b backoff) maxAttempts() int {
	return max(b.attempts, 1)
}

// next reports whether err warrants another attempt and how long to wait first.
func (b backoff) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= b.maxAttempts() || ctx.Err() != nil || isContextErr(err) {
		return 0, false
	}
	var blank *blankReplyError
	if errors.As(err, &blank) {
		return b.delay(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if !status.transient() {
			return 0, false
		}
		if status.retryAfter > 0 {
			return b.clamp(status.retryAfter), true
		}
		return b.delay(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return b.delay(attempt), true
	}
	return 0, false
}

func (b backoff) delay(attempt int) time.Duration {
	if b.base <= 0 {
		return 0
	}
	d := b.base
	for i := 1; i < attempt && (b.ceiling <= 0 || d < b.ceiling); i++ {
		d *= 2
	}
	return b.clamp(d)
}

func (b backoff) clamp(d time.Duration) time.Duration {
	if b.ceiling > 0 && d > b.ceiling {
		return b.ceiling
	}
	return max(d, 0)
}

func (b backoff) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if b.sleep != nil {
		b.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryAfter parses a Retry-After header given either as seconds or an HTTP date.
func retryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(when.Sub(now), 0)
	}
	return 0
}
