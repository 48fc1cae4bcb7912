package daemonrun

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"marquee/internal/api"
	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/facematch"
	"marquee/internal/logging"
	"marquee/internal/recommend"
	"marquee/internal/services/llm"
	"marquee/internal/session"
	"marquee/internal/store"
	"marquee/internal/tmdb"
	"marquee/internal/tmdbcache"
)

const cacheGCInterval = time.Hour

// Components are the services shared by marqueed and the marquee CLI.
type Components struct {
	Store       *store.Store
	Cache       *tmdbcache.Cache
	TMDB        *tmdb.Client
	Genres      *tmdb.Catalogue
	Recommender *recommend.Service
	Faces       *facematch.Matcher
	// Sentiment is nil when review classification is disabled.
	Sentiment *llm.Client
}

// Build opens the store and constructs every service from cfg. A cache that
// cannot be opened, for example because another process holds it, is logged
// and skipped.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c := &Components{Store: st}

	tmdbOpts := []tmdb.Option{
		tmdb.WithLogger(logger),
		tmdb.WithRegion(cfg.TMDB.Region),
		tmdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second}),
		tmdb.WithBreaker(cfg.TMDB.BreakerFailures, time.Duration(cfg.TMDB.BreakerCooldownSeconds)*time.Second),
	}
	if cfg.TMDBCacheEnabled() {
		cache, err := tmdbcache.Open(cfg.Paths.CacheDir, cfg.TMDBCacheTTL(), logger)
		if err != nil {
			logging.WarnWithContext(logger, "tmdb cache unavailable", "tmdb_cache_unavailable",
				logging.Error(err),
				logging.String("cache_dir", cfg.Paths.CacheDir),
				logging.String(logging.FieldErrorHint, "another marquee process may hold the cache"),
				logging.String(logging.FieldImpact, "provider responses are not cached"),
			)
		} else {
			c.Cache = cache
			tmdbOpts = append(tmdbOpts, tmdb.WithCache(cache))
		}
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdbOpts...)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	c.TMDB = client
	c.Genres = tmdb.NewCatalogue(client, time.Duration(cfg.TMDB.GenreRefreshHours)*time.Hour)
	c.Recommender = recommend.New(st, client, c.Genres,
		recommend.WithTopGenres(cfg.Recommend.TopGenres),
		recommend.WithLimit(cfg.Recommend.Limit),
		recommend.WithLogger(logger),
	)

	faces, err := facematch.Load(cfg.Faces.EmbeddingsPath, logger,
		facematch.WithMinScore(cfg.Faces.MinScore),
		facematch.WithTopK(cfg.Faces.TopK),
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	c.Faces = faces

	if cfg.Sentiment.Enabled {
		llmCfg := cfg.SentimentLLM()
		c.Sentiment = llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		}, llm.WithLogger(logger))
	}
	return c, nil
}

// Verifier builds the bearer token verifier from the auth settings.
func Verifier(cfg *config.Config) (*session.Verifier, error) {
	return session.NewVerifier(cfg.Auth.JWTSecret,
		session.WithIssuer(cfg.Auth.Issuer),
		session.WithAudience(cfg.Auth.Audience),
	)
}

// Handler assembles the HTTP API over the components.
func (c *Components) Handler(cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	verifier, err := Verifier(cfg)
	if err != nil {
		return nil, err
	}
	deps := api.Deps{
		Config:      cfg,
		Store:       c.Store,
		Provider:    c.TMDB,
		Genres:      c.Genres,
		Recommender: c.Recommender,
		Faces:       c.Faces,
		Verifier:    verifier,
		Logger:      logger,
	}
	if c.Sentiment != nil {
		deps.Sentiment = c.Sentiment
	}
	srv, err := api.New(deps)
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

// Jobs returns the background jobs marqueed runs beside the story sweep:
// keeping the genre catalogue warm and reclaiming cache disk space.
func (c *Components) Jobs(cfg *config.Config) []daemon.Option {
	var opts []daemon.Option
	if c.Genres != nil && cfg.TMDB.APIKey != "" {
		opts = append(opts, daemon.WithJob(daemon.Job{
			Name:     "genre_refresh",
			Interval: time.Duration(cfg.TMDB.GenreRefreshHours) * time.Hour,
			Impact:   "genre names resolve lazily on the next request",
			Run:      c.Genres.Refresh,
		}))
	}
	if c.Cache != nil {
		opts = append(opts, daemon.WithJob(daemon.Job{
			Name:     "tmdb_cache_gc",
			Interval: cacheGCInterval,
			Impact:   "the cache directory keeps expired entries on disk",
			Run:      c.Cache.CollectGarbage,
		}))
	}
	return opts
}

// Close releases the store and cache.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}
