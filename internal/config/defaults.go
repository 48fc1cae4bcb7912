package config

const (
	defaultDataDir                = "~/.local/share/marquee"
	defaultLogDir                 = "~/.local/share/marquee/logs"
	defaultBind                   = "127.0.0.1:8484"
	defaultRateLimitRequests      = 120
	defaultRateLimitWindowSeconds = 60
	defaultShutdownTimeoutSeconds = 10
	defaultTMDBLanguage           = "en-US"
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL       = "https://image.tmdb.org/t/p/w500"
	defaultTMDBTimeoutSeconds     = 10
	defaultTMDBCacheTTLMinutes    = 30
	defaultBreakerFailures        = 5
	defaultBreakerCooldownSeconds = 30
	defaultGenreRefreshHours      = 24
	defaultSentimentBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultSentimentModel         = "google/gemini-3-flash-preview"
	defaultSentimentReferer       = "https://github.com/marquee-app/marquee"
	defaultSentimentTitle         = "Marquee Review Sentiment"
	defaultSentimentTimeout       = 30
	defaultRecommendTopGenres     = 3
	defaultRecommendLimit         = 20
	defaultFacesMinScore          = 0.5
	defaultFacesTopK              = 5
	defaultQuizQuestions          = 10
	defaultStoryTTLHours          = 24
	defaultFeedLimit              = 50
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir(),
		},
		Server: Server{
			Bind:                   defaultBind,
			RateLimitRequests:      defaultRateLimitRequests,
			RateLimitWindowSeconds: defaultRateLimitWindowSeconds,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		TMDB: TMDB{
			BaseURL:                defaultTMDBBaseURL,
			ImageBaseURL:           defaultTMDBImageBaseURL,
			Language:               defaultTMDBLanguage,
			TimeoutSeconds:         defaultTMDBTimeoutSeconds,
			CacheTTLMinutes:        defaultTMDBCacheTTLMinutes,
			BreakerFailures:        defaultBreakerFailures,
			BreakerCooldownSeconds: defaultBreakerCooldownSeconds,
			GenreRefreshHours:      defaultGenreRefreshHours,
		},
		Sentiment: Sentiment{
			BaseURL:        defaultSentimentBaseURL,
			Model:          defaultSentimentModel,
			Referer:        defaultSentimentReferer,
			Title:          defaultSentimentTitle,
			TimeoutSeconds: defaultSentimentTimeout,
		},
		Recommend: Recommend{
			TopGenres: defaultRecommendTopGenres,
			Limit:     defaultRecommendLimit,
		},
		Faces: Faces{
			MinScore: defaultFacesMinScore,
			TopK:     defaultFacesTopK,
		},
		Quiz: Quiz{
			Questions: defaultQuizQuestions,
		},
		Posts: Posts{
			StoryTTLHours: defaultStoryTTLHours,
			FeedLimit:     defaultFeedLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
