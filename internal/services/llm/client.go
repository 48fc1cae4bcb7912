package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marquee/internal/logging"
	"marquee/internal/services"
)

// DefaultEndpoint is the OpenRouter chat completions URL used when none is configured.
const DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

const defaultTimeout = 15 * time.Second

// ErrNotConfigured is returned when the client has no API key.
var ErrNotConfigured = fmt.Errorf("llm: api key required: %w", services.ErrConfiguration)

// Config holds the provider settings for a Client.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

func (c Config) normalized() Config {
	out := Config{
		APIKey:         strings.TrimSpace(c.APIKey),
		BaseURL:        strings.TrimSpace(c.BaseURL),
		Model:          strings.TrimSpace(c.Model),
		Referer:        strings.TrimSpace(c.Referer),
		Title:          strings.TrimSpace(c.Title),
		TimeoutSeconds: c.TimeoutSeconds,
	}
	if out.BaseURL == "" {
		out.BaseURL = DefaultEndpoint
	}
	return out
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}

// Client issues JSON-mode chat completions against an OpenAI-compatible endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	retry  backoff
	logger *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts caps the number of requests per call. Values below one mean a single attempt.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first backoff delay and the ceiling for all delays.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.base = base
		c.retry.ceiling = ceiling
	}
}

// WithSleeper swaps the wait between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleep }
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client. A zero Config yields an unconfigured client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.normalized()
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.timeout()},
		retry:  defaultBackoff(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "llm")
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// CompleteJSON sends a system and user prompt in JSON response mode and
// returns the model's raw payload.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	system = strings.TrimSpace(system)
	user = strings.TrimSpace(user)
	switch {
	case system == "":
		return "", errors.New("llm complete: system prompt required")
	case user == "":
		return "", errors.New("llm complete: user prompt required")
	case !c.Configured():
		return "", ErrNotConfigured
	}
	return c.complete(ctx, "llm complete", c.jsonRequest(system, user))
}

// HealthCheck asks the model for {"ok":true} to confirm the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	content, err := c.complete(ctx, "llm health",
		c.jsonRequest("You must respond with JSON only.", `Respond with {"ok":true}`))
	if err != nil {
		return err
	}
	var ack struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &ack); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !ack.OK {
		return fmt.Errorf("llm health: model did not acknowledge: %w", services.ErrUpstream)
	}
	return nil
}

// complete runs one request through the retry loop until a non-empty payload arrives.
func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	var err error
	tries := 0
	for {
		tries++
		var content string
		content, err = c.attempt(ctx, op, req)
		if err == nil {
			return content, nil
		}
		delay, ok := c.retry.next(ctx, err, tries)
		if !ok {
			break
		}
		c.logger.Debug("llm request retry",
			logging.String(logging.FieldOperation, op),
			logging.Int("attempt", tries),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if werr := c.retry.wait(ctx, delay); werr != nil {
			return "", werr
		}
	}
	if tries > 1 && !isContextErr(err) {
		return "", fmt.Errorf("%s: gave up after %d attempts: %w", op, tries, err)
	}
	return "", err
}

func (c *Client) attempt(ctx context.Context, op string, req chatRequest) (string, error) {
	reply, raw, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices: %w", op, services.ErrUpstream)
	}
	content, finish, refusal := reply.payload()
	if content == "" {
		return "", &blankReplyError{op: op, finish: finish, refusal: refusal, snippet: snippet(string(raw))}
	}
	return content, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
