package api

import (
	"time"

	"marquee/internal/facematch"
	"marquee/internal/quiz"
	"marquee/internal/store"
	"marquee/internal/tmdb"
	"marquee/internal/validation"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Sentiment bool      `json:"sentiment"`
	Actors    int       `json:"actors"`
	Time      time.Time `json:"time"`
}

// ListResponse wraps a TMDB page.
type ListResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []tmdb.Result `json:"results"`
}

// GenresResponse lists the merged movie and TV genre catalogue.
type GenresResponse struct {
	Genres []tmdb.Genre `json:"genres"`
}

// FavoriteRequest adds a title to the caller's favorites. When genres are
// omitted they are looked up from the content provider.
type FavoriteRequest struct {
	TMDBID     int64    `json:"tmdb_id" validate:"gt=0"`
	MediaType  string   `json:"media_type" validate:"required,oneof=movie tv"`
	Title      string   `json:"title" validate:"max=500"`
	PosterPath string   `json:"poster_path" validate:"max=500"`
	Genres     []string `json:"genres" validate:"max=20,dive,max=100"`
}

// FavoriteResponse reports the stored favorite and whether it was new.
type FavoriteResponse struct {
	Favorite store.Favorite `json:"favorite"`
	Created  bool           `json:"created"`
}

// FavoritesResponse lists favorites.
type FavoritesResponse struct {
	Favorites []store.Favorite `json:"favorites"`
}

// ReviewRequest submits a review. Sentiment is classified when omitted and a
// classifier is configured; genre ids are looked up when omitted.
type ReviewRequest struct {
	ContentID      int64    `json:"content_id" validate:"gt=0"`
	ContentType    string   `json:"content_type" validate:"required,oneof=movie tv"`
	Title          string   `json:"title" validate:"max=500"`
	Rating         *int     `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Body           string   `json:"body" validate:"max=5000"`
	Sentiment      string   `json:"sentiment" validate:"omitempty,oneof=positive negative"`
	SentimentScore *float64 `json:"sentiment_score" validate:"omitempty,gte=0,lte=1"`
	GenreIDs       []int    `json:"genre_ids" validate:"max=20,dive,gt=0"`
}

// ReviewsResponse lists reviews.
type ReviewsResponse struct {
	Reviews []store.Review `json:"reviews"`
}

// PostRequest creates a post or story.
type PostRequest struct {
	Kind      string `json:"kind" validate:"omitempty,oneof=post story"`
	Body      string `json:"body" validate:"required,max=2000"`
	TMDBID    int64  `json:"tmdb_id" validate:"gte=0"`
	MediaType string `json:"media_type" validate:"omitempty,oneof=movie tv"`
}

// PostsResponse lists posts.
type PostsResponse struct {
	Posts []store.Post `json:"posts"`
}

// QuizRequest builds a quiz from trending titles. A zero seed picks one.
type QuizRequest struct {
	MediaType string `json:"media_type" validate:"omitempty,oneof=movie tv all"`
	Questions int    `json:"questions" validate:"gte=0,lte=50"`
	Seed      uint64 `json:"seed"`
}

// QuizResponse returns the generated questions and the seed that built them.
type QuizResponse struct {
	Seed      uint64          `json:"seed"`
	Questions []quiz.Question `json:"questions"`
}

// QuizScoreRequest scores answers against the questions they answer.
type QuizScoreRequest struct {
	Questions []quiz.Question        `json:"questions" validate:"max=100,dive"`
	Answers   map[string]quiz.Answer `json:"answers"`
}

// FaceMatchRequest carries a query embedding.
type FaceMatchRequest struct {
	Embedding []float64 `json:"embedding" validate:"min=1,max=4096"`
}

// FaceMatchResponse lists look-alike actors.
type FaceMatchResponse struct {
	Matches []facematch.Match `json:"matches"`
}
