package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTMDB()
	c.normalizeAuth()
	c.normalizeSentiment()
	if err := c.normalizeFaces(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	seen := make(map[string]struct{}, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	c.Server.CORSOrigins = origins
	if c.Server.RateLimitWindowSeconds <= 0 {
		c.Server.RateLimitWindowSeconds = defaultRateLimitWindowSeconds
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	c.TMDB.Region = strings.ToUpper(strings.TrimSpace(c.TMDB.Region))
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
	if c.TMDB.CacheTTLMinutes < 0 {
		c.TMDB.CacheTTLMinutes = 0
	}
	if c.TMDB.BreakerFailures <= 0 {
		c.TMDB.BreakerFailures = defaultBreakerFailures
	}
	if c.TMDB.BreakerCooldownSeconds <= 0 {
		c.TMDB.BreakerCooldownSeconds = defaultBreakerCooldownSeconds
	}
	if c.TMDB.GenreRefreshHours <= 0 {
		c.TMDB.GenreRefreshHours = defaultGenreRefreshHours
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	if c.Auth.JWTSecret == "" {
		if value, ok := os.LookupEnv("MARQUEE_JWT_SECRET"); ok {
			c.Auth.JWTSecret = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("SUPABASE_JWT_SECRET"); ok {
			c.Auth.JWTSecret = strings.TrimSpace(value)
		}
	}
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)
	c.Auth.Audience = strings.TrimSpace(c.Auth.Audience)
}

func (c *Config) normalizeSentiment() {
	c.Sentiment.BaseURL = strings.TrimSpace(c.Sentiment.BaseURL)
	if c.Sentiment.BaseURL == "" {
		c.Sentiment.BaseURL = defaultSentimentBaseURL
	}
	c.Sentiment.Model = strings.TrimSpace(c.Sentiment.Model)
	if c.Sentiment.Model == "" {
		c.Sentiment.Model = defaultSentimentModel
	}
	c.Sentiment.Referer = strings.TrimSpace(c.Sentiment.Referer)
	if c.Sentiment.Referer == "" {
		c.Sentiment.Referer = defaultSentimentReferer
	}
	c.Sentiment.Title = strings.TrimSpace(c.Sentiment.Title)
	if c.Sentiment.Title == "" {
		c.Sentiment.Title = defaultSentimentTitle
	}
	if c.Sentiment.TimeoutSeconds <= 0 {
		c.Sentiment.TimeoutSeconds = defaultSentimentTimeout
	}
	c.Sentiment.APIKey = strings.TrimSpace(c.Sentiment.APIKey)
	if c.Sentiment.APIKey == "" {
		if value, ok := os.LookupEnv("SENTIMENT_API_KEY"); ok {
			c.Sentiment.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Sentiment.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeFaces() error {
	path := strings.TrimSpace(c.Faces.EmbeddingsPath)
	if path == "" {
		c.Faces.EmbeddingsPath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("faces.embeddings_path: %w", err)
	}
	c.Faces.EmbeddingsPath = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
