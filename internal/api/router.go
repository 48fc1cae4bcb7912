package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the chi router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(s.rateLimit())
	r.Use(s.metrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethodNotAllowed)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/trending", s.handleTrending)
		r.Get("/search", s.handleSearch)
		r.Get("/titles/{media_type}/{id}", s.handleTitle)
		r.Get("/genres", s.handleGenres)
		r.Get("/people/{id}", s.handlePerson)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/favorites", s.handleListFavorites)
			r.Post("/favorites", s.handleAddFavorite)
			r.Delete("/favorites/{media_type}/{id}", s.handleRemoveFavorite)

			r.Get("/reviews", s.handleListReviews)
			r.Post("/reviews", s.handleCreateReview)
			r.Get("/reviews/content/{media_type}/{id}", s.handleContentReviews)

			r.Get("/affinity", s.handleAffinity)
			r.Get("/recommendations", s.handleRecommendations)

			r.Post("/quiz", s.handleBuildQuiz)
			r.Post("/quiz/score", s.handleScoreQuiz)

			r.Post("/faces/match", s.handleFaceMatch)

			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Get("/feed", s.handleFeed)
		})
	})
	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	requests := s.cfg.Server.RateLimitRequests
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := time.Duration(s.cfg.Server.RateLimitWindowSeconds) * time.Second
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, r, errRateLimited)
		}),
	)
}
