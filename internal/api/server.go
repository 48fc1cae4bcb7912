package api

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"marquee/internal/config"
	"marquee/internal/facematch"
	"marquee/internal/logging"
	"marquee/internal/recommend"
	"marquee/internal/services/llm"
	"marquee/internal/session"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

// Provider is the content provider surface the handlers use.
type Provider interface {
	Trending(ctx context.Context, mediaType, window string, page int) (*tmdb.Response, error)
	Search(ctx context.Context, kind, query string, page int) (*tmdb.Response, error)
	Details(ctx context.Context, mediaType string, id int64) (*tmdb.Result, error)
	Person(ctx context.Context, personID int64) (*tmdb.Person, error)
}

// GenreCatalogue resolves genre ids to labels.
type GenreCatalogue interface {
	List(ctx context.Context) ([]tmdb.Genre, error)
	Names(ctx context.Context, ids []int) ([]string, error)
}

// Recommender computes affinity profiles and recommendations.
type Recommender interface {
	Affinity(ctx context.Context, userID string) (*recommend.Profile, error)
	Recommend(ctx context.Context, userID, contentType string, limit int) (*recommend.Recommendations, error)
}

// SentimentClassifier labels review text.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (llm.Sentiment, error)
}

// Deps are the collaborators a Server needs. Sentiment and Faces are optional.
type Deps struct {
	Config      *config.Config
	Store       *store.Store
	Provider    Provider
	Genres      GenreCatalogue
	Recommender Recommender
	Faces       *facematch.Matcher
	Sentiment   SentimentClassifier
	Verifier    *session.Verifier
	Logger      *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	cfg         *config.Config
	store       *store.Store
	provider    Provider
	genres      GenreCatalogue
	recommender Recommender
	faces       *facematch.Matcher
	sentiment   SentimentClassifier
	verifier    *session.Verifier
	logger      *slog.Logger

	now      func() time.Time
	quizSeed func() uint64
}

// New validates deps and builds a Server.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("api: config is required")
	case deps.Store == nil:
		return nil, errors.New("api: store is required")
	case deps.Provider == nil || deps.Genres == nil:
		return nil, errors.New("api: content provider is required")
	case deps.Recommender == nil:
		return nil, errors.New("api: recommender is required")
	case deps.Verifier == nil:
		return nil, errors.New("api: session verifier is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	faces := deps.Faces
	if faces == nil {
		faces = facematch.New(nil)
	}
	return &Server{
		cfg:         deps.Config,
		store:       deps.Store,
		provider:    deps.Provider,
		genres:      deps.Genres,
		recommender: deps.Recommender,
		faces:       faces,
		sentiment:   deps.Sentiment,
		verifier:    deps.Verifier,
		logger:      logging.NewComponentLogger(logger, "api"),
		now:         time.Now,
		quizSeed:    rand.Uint64,
	}, nil
}

// HTTPServer wraps handler with the timeouts used by marqueed.
func HTTPServer(bind string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              bind,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
