package preflight

import (
	"context"
	"log/slog"

	"marquee/internal/config"
	"marquee/internal/logging"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.TMDBCacheEnabled() {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}

	results = append(results, CheckTMDB(ctx, cfg.TMDB))

	if cfg.Sentiment.Enabled {
		results = append(results, CheckLLM(ctx, "Sentiment LLM", cfg.SentimentLLM()))
	}
	if cfg.Faces.EmbeddingsPath != "" {
		results = append(results, CheckEmbeddings("Actor embeddings", cfg.Faces.EmbeddingsPath))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// LogResults writes one line per check; failures are logged as warnings.
func LogResults(logger *slog.Logger, results []Result) {
	if logger == nil {
		return
	}
	for _, r := range results {
		if r.Passed {
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run marquee doctor for details"),
		)
	}
}
