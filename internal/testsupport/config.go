package testsupport

import (
	"path/filepath"
	"testing"

	"marquee/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The TMDB response cache is disabled unless WithTMDBCache is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = ""
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.CacheTTLMinutes = 0
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Auth.JWTSecret = "test-secret"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDBBaseURL points the TMDB client at a test server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = url
	}
}

// WithTMDBCache enables the on-disk response cache under the temp directory.
func WithTMDBCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.CacheDir = filepath.Join(b.baseDir, "cache")
		b.cfg.TMDB.CacheTTLMinutes = 5
	}
}

// WithSentiment enables review classification against baseURL.
func WithSentiment(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sentiment.Enabled = true
		b.cfg.Sentiment.APIKey = "test-llm"
		b.cfg.Sentiment.BaseURL = baseURL
		b.cfg.Sentiment.TimeoutSeconds = 5
	}
}

// WithEmbeddings points the face matcher at path.
func WithEmbeddings(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Faces.EmbeddingsPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
