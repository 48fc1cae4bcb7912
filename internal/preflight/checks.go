package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"marquee/internal/config"
	"marquee/internal/facematch"
	"marquee/internal/logging"
	"marquee/internal/services/llm"
	"marquee/internal/tmdb"
)

const (
	tmdbCheckTimeout = 10 * time.Second
	llmCheckTimeout  = 30 * time.Second
	missingKey       = "API key missing"
)

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// pathFailure reports a path with a parenthesized reason, e.g. "/srv/data (error: does not exist)".
func pathFailure(name, path, reason string) Result {
	return fail(name, "%s (error: %s)", path, reason)
}

func statReason(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return "does not exist"
	}
	return "stat: " + err.Error()
}

// CheckTMDB asks TMDB to accept the configured key. It builds its own
// uncached client so a warm cache cannot hide a revoked key.
func CheckTMDB(ctx context.Context, cfg config.TMDB) Result {
	const name = "TMDB"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fail(name, missingKey)
	}
	client, err := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language, tmdb.WithBreaker(1, time.Second))
	if err != nil {
		return fail(name, "%v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, tmdbCheckTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return fail(name, "%s", describeFailure(err))
	}
	return pass(name, "API key accepted")
}

// CheckLLM sends one health request with retries disabled.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return fail(name, missingKey)
	}
	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		return fail(name, "%s", describeFailure(err))
	}
	return pass(name, "API reachable (model %s)", orDefault(client.Model(), "provider default"))
}

// CheckEmbeddings loads the actor embedding file the face matcher will use.
func CheckEmbeddings(name, path string) Result {
	if _, err := os.Stat(path); err != nil {
		return pathFailure(name, path, statReason(err))
	}
	matcher, err := facematch.Load(path, logging.NewNop())
	if err != nil {
		return pathFailure(name, path, err.Error())
	}
	if n := matcher.Len(); n > 0 {
		return pass(name, "%s (%d actors)", path, n)
	}
	return pathFailure(name, path, "no usable embeddings")
}

// CheckDirectoryAccess requires path to be a directory the process can list and write.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return pathFailure(name, path, statReason(err))
	case !info.IsDir():
		return pathFailure(name, path, "is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return pathFailure(name, path, "insufficient permissions: "+err.Error())
	}
	return pass(name, "%s (read/write ok)", path)
}

func describeFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (API unresponsive)"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "health check timed out (API unreachable)"
	default:
		return err.Error()
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
