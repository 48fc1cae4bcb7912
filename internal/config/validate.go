package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSentiment(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/marquee/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'marquee config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RateLimitRequests < 0 {
		return errors.New("server.rate_limit_requests must be >= 0 (0 disables rate limiting)")
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("server.cors_origins: %q is not an origin (scheme://host[:port])", origin)
		}
	}
	return nil
}

func (c *Config) validateSentiment() error {
	if c.Sentiment.Enabled && strings.TrimSpace(c.Sentiment.APIKey) == "" {
		return errors.New("sentiment.api_key must be set when sentiment.enabled is true (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if err := ensurePositiveMap(map[string]int{
		"recommend.top_genres":  c.Recommend.TopGenres,
		"recommend.limit":       c.Recommend.Limit,
		"faces.top_k":           c.Faces.TopK,
		"quiz.questions":        c.Quiz.Questions,
		"posts.story_ttl_hours": c.Posts.StoryTTLHours,
		"posts.feed_limit":      c.Posts.FeedLimit,
	}); err != nil {
		return err
	}
	if c.Faces.MinScore < 0 || c.Faces.MinScore > 1 {
		return errors.New("faces.min_score must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
