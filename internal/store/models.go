package store

import (
	"time"

	"marquee/internal/affinity"
)

// Post kinds.
const (
	KindPost  = "post"
	KindStory = "story"
)

// Review sentiment labels. An empty label means unclassified.
const (
	SentimentPositive = affinity.SentimentPositive
	SentimentNegative = "negative"
)

// Favorite is a title a user has saved.
type Favorite struct {
	UserID     string    `json:"user_id" validate:"required"`
	TMDBID     int64     `json:"tmdb_id" validate:"gt=0"`
	MediaType  string    `json:"media_type" validate:"oneof=movie tv"`
	Title      string    `json:"title,omitempty" validate:"max=500"`
	PosterPath string    `json:"poster_path,omitempty" validate:"max=500"`
	Genres     []string  `json:"genres"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenreLabels exposes the favorite to the affinity scorer.
func (f Favorite) GenreLabels() []string { return f.Genres }

// Review is an immutable user review of a title.
type Review struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id" validate:"required"`
	ContentID      int64     `json:"content_id" validate:"gt=0"`
	ContentType    string    `json:"content_type" validate:"oneof=movie tv"`
	Title          string    `json:"title,omitempty" validate:"max=500"`
	Rating         *int      `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Body           string    `json:"body,omitempty" validate:"max=5000"`
	Sentiment      string    `json:"sentiment,omitempty" validate:"omitempty,oneof=positive negative"`
	SentimentScore *float64  `json:"sentiment_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	GenreIDs       []int     `json:"genre_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signal converts the review into the input of the genre ranking.
func (r Review) Signal() affinity.ReviewSignal {
	return affinity.ReviewSignal{
		ContentType:    r.ContentType,
		Sentiment:      r.Sentiment,
		SentimentScore: r.SentimentScore,
		GenreIDs:       r.GenreIDs,
	}
}

// Post is a feed entry. Stories carry an expiry; plain posts do not.
type Post struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id" validate:"required"`
	Kind      string     `json:"kind" validate:"oneof=post story"`
	Body      string     `json:"body" validate:"required,max=2000"`
	TMDBID    int64      `json:"tmdb_id,omitempty" validate:"gte=0"`
	MediaType string     `json:"media_type,omitempty" validate:"omitempty,oneof=movie tv"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the post is a story past its expiry at now.
func (p Post) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// AffinitySnapshot caches the last computed genre affinity for a user.
type AffinitySnapshot struct {
	UserID     string           `json:"user_id"`
	Shares     []affinity.Share `json:"shares"`
	ComputedAt time.Time        `json:"computed_at"`
}
