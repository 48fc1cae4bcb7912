package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marquee/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Server contains configuration for the HTTP API.
type Server struct {
	Bind                   string   `toml:"bind"`
	CORSOrigins            []string `toml:"cors_origins"`
	RateLimitRequests      int      `toml:"rate_limit_requests"`
	RateLimitWindowSeconds int      `toml:"rate_limit_window_seconds"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey                 string `toml:"api_key"`
	BaseURL                string `toml:"base_url"`
	ImageBaseURL           string `toml:"image_base_url"`
	Language               string `toml:"language"`
	Region                 string `toml:"region"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	CacheTTLMinutes        int    `toml:"cache_ttl_minutes"`
	BreakerFailures        int    `toml:"breaker_failures"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
	GenreRefreshHours      int    `toml:"genre_refresh_hours"`
}

// Auth contains settings for verifying bearer tokens issued by the hosted
// auth provider.
type Auth struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
	Audience  string `toml:"audience"`
}

// Sentiment contains the LLM settings used to classify review sentiment.
type Sentiment struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Recommend contains recommendation limits.
type Recommend struct {
	TopGenres int `toml:"top_genres"`
	Limit     int `toml:"limit"`
}

// Faces contains configuration for actor look-alike matching.
type Faces struct {
	EmbeddingsPath string  `toml:"embeddings_path"`
	MinScore       float64 `toml:"min_score"`
	TopK           int     `toml:"top_k"`
}

// Quiz contains quiz generation settings.
type Quiz struct {
	Questions int `toml:"questions"`
}

// Posts contains social feed settings.
type Posts struct {
	StoryTTLHours int `toml:"story_ttl_hours"`
	FeedLimit     int `toml:"feed_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Marquee.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and cache directories
//   - Server: HTTP bind address, CORS, and rate limiting
//   - TMDB: content provider credentials, cache, and circuit breaker
//   - Auth: bearer token verification for sessions
//   - Sentiment: optional LLM review classification
//   - Recommend: genre seed size and result limits
//   - Faces: actor embedding set and match thresholds
//   - Quiz: question count
//   - Posts: story lifetime and feed size
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	TMDB      TMDB      `toml:"tmdb"`
	Auth      Auth      `toml:"auth"`
	Sentiment Sentiment `toml:"sentiment"`
	Recommend Recommend `toml:"recommend"`
	Faces     Faces     `toml:"faces"`
	Quiz      Quiz      `toml:"quiz"`
	Posts     Posts     `toml:"posts"`
	Logging   Logging   `toml:"logging"`
}

// EnsureDirectories creates the data and log directories. The cache directory
// is only created when the TMDB response cache is enabled.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.TMDBCacheEnabled() {
		if err := os.MkdirAll(c.Paths.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Paths.CacheDir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "marquee.db")
}

// LockPath returns the server's single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "marqueed.lock")
}

// PIDPath returns the file holding the running server's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "marqueed.pid")
}

// LogPath returns the shared log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "marquee.log")
}

// TMDBCacheEnabled reports whether provider responses should be cached.
func (c *Config) TMDBCacheEnabled() bool {
	return c.TMDB.CacheTTLMinutes > 0 && strings.TrimSpace(c.Paths.CacheDir) != ""
}

// TMDBCacheTTL returns the configured cache lifetime.
func (c *Config) TMDBCacheTTL() time.Duration {
	return time.Duration(c.TMDB.CacheTTLMinutes) * time.Minute
}

// StoryTTL returns how long stories stay visible.
func (c *Config) StoryTTL() time.Duration {
	return time.Duration(c.Posts.StoryTTLHours) * time.Hour
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings for the sentiment classifier.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// SentimentLLM returns the sentiment classifier connection settings.
func (c *Config) SentimentLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Sentiment.APIKey),
		BaseURL:        strings.TrimSpace(c.Sentiment.BaseURL),
		Model:          strings.TrimSpace(c.Sentiment.Model),
		Referer:        strings.TrimSpace(c.Sentiment.Referer),
		Title:          strings.TrimSpace(c.Sentiment.Title),
		TimeoutSeconds: c.Sentiment.TimeoutSeconds,
	}
}
