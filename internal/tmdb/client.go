package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"marquee/internal/logging"
	"marquee/internal/metrics"
	"marquee/internal/services"
	"marquee/internal/validation"
)

const breakerName = "tmdb"

// Cache stores raw response bodies keyed by request path and query.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	region     string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger

	breakerFailures uint32
	breakerCooldown time.Duration
	breaker         *gobreaker.CircuitBreaker[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger attaches a logger for breaker transitions and cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRegion sets the ISO 3166-1 region sent with list requests.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = strings.ToUpper(strings.TrimSpace(region))
	}
}

// WithBreaker configures how many consecutive failures open the breaker and
// how long it stays open before probing again.
func WithBreaker(failures int, cooldown time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = uint32(failures)
		}
		if cooldown > 0 {
			c.breakerCooldown = cooldown
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(baseURL, "/"),
		language:        strings.TrimSpace(language),
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		breakerFailures: 5,
		breakerCooldown: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "tmdb")
	client.breaker = client.newBreaker()
	return client, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	failures := c.breakerFailures
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing title is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		IsExcluded: func(err error) bool {
			var abandoned *abandonedError
			return errors.As(err, &abandoned)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(c.logger, "tmdb circuit breaker opened", "tmdb_breaker_open",
					logging.String("from", from.String()),
					logging.String(logging.FieldErrorHint, "check TMDB status and the configured api key"),
					logging.String(logging.FieldImpact, "content requests fail fast until the cooldown elapses"),
				)
				return
			}
			c.logger.Info("tmdb circuit breaker state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get fetches path with params, consulting the cache first, and decodes the
// body into out. Only bodies that decode are cached.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" && params.Get("language") == "" {
		params.Set("language", c.language)
	}
	key := cacheKey(path, params)

	if c.cache != nil {
		cached, ok := c.cache.Get(key)
		metrics.RecordCacheLookup(breakerName, ok)
		if ok {
			err := json.Unmarshal(cached, out)
			if err == nil {
				return nil
			}
			c.logger.Debug("dropping undecodable cache entry",
				logging.String("endpoint", endpoint),
				logging.String("key", key),
				logging.Error(err),
			)
			if derr := c.cache.Delete(key); derr != nil {
				c.logger.Debug("tmdb cache delete failed", logging.String("key", key), logging.Error(derr))
			}
			resetValue(out)
		}
	}

	body, err := c.execute(ctx, endpoint, path, params)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordTMDBRequest(endpoint, "rejected", 0)
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
		}
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrUpstream, "tmdb", endpoint, "decode response", err)
	}
	if c.cache != nil {
		if err := c.cache.Set(key, body); err != nil {
			logging.WarnWithContext(c.logger, "tmdb cache write failed", "tmdb_cache_write_failed",
				logging.String("endpoint", endpoint),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the cache directory is writable"),
				logging.String(logging.FieldImpact, "the response will be fetched again next time"),
			)
		}
	}
	return nil
}

// execute runs one request through the breaker. Failures caused by the
// caller's own context are marked so they do not count against TMDB.
func (c *Client) execute(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		body, err := c.do(ctx, endpoint, path, params)
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return body, err
	})
}

// resetValue zeroes the value out points to so a failed partial decode
// leaves nothing behind.
func resetValue(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}

func (c *Client) do(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		metrics.RecordTMDBRequest(endpoint, "error", latency)
		return nil, fmt.Errorf("%w: execute request (latency=%v): %w", services.ErrUpstream, latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		metrics.RecordTMDBRequest(endpoint, "not_found", latency)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		metrics.RecordTMDBRequest(endpoint, "error", latency)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Latency: latency}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		metrics.RecordTMDBRequest(endpoint, "error", latency)
		return nil, fmt.Errorf("%w: read tmdb response: %w", services.ErrUpstream, err)
	}
	metrics.RecordTMDBRequest(endpoint, "success", latency)
	return body, nil
}

// cacheKey renders path and sorted query parameters. The api key never
// reaches the key because it is added in do.
func cacheKey(path string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "api_key" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(path)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(params[k], ","))
	}
	return b.String()
}

// sanitize drops list entries that fail validation.
func (c *Client) sanitize(endpoint string, resp *Response) {
	kept := resp.Results[:0]
	for _, r := range resp.Results {
		if err := validation.Struct(&r); err != nil {
			c.logger.Debug("dropping invalid tmdb record",
				logging.String("endpoint", endpoint),
				logging.Int64("tmdb_id", r.ID),
				logging.Error(err),
			)
			continue
		}
		kept = append(kept, r)
	}
	resp.Results = kept
}
