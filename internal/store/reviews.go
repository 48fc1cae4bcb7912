package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"marquee/internal/services"
	"marquee/internal/validation"
)

const reviewColumns = "id, user_id, content_id, content_type, title, rating, body, sentiment, sentiment_score, genre_ids_json, created_at"

// CreateReview stores a new review, assigning its id and timestamp.
func (s *Store) CreateReview(ctx context.Context, review Review) (*Review, error) {
	ctx = ensureContext(ctx)
	review.ContentType = strings.ToLower(strings.TrimSpace(review.ContentType))
	review.Sentiment = strings.ToLower(strings.TrimSpace(review.Sentiment))
	review.Body = strings.TrimSpace(review.Body)
	if review.Sentiment == "" {
		review.SentimentScore = nil
	}
	if err := validation.Struct(&review); err != nil {
		return nil, services.Wrap(services.ErrValidation, "store", "create review", "", err)
	}
	review.ID = uuid.NewString()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = s.now()
	}
	if review.GenreIDs == nil {
		review.GenreIDs = []int{}
	}
	genreIDs, err := encodeJSON(review.GenreIDs)
	if err != nil {
		return nil, fmt.Errorf("encode genre ids: %w", err)
	}

	var rating, score any
	if review.Rating != nil {
		rating = *review.Rating
	}
	if review.SentimentScore != nil {
		score = *review.SentimentScore
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.ContentID, review.ContentType,
		nullableString(review.Title), rating, nullableString(review.Body),
		nullableString(review.Sentiment), score, genreIDs, formatTime(review.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return &review, nil
}

// GetReview fetches one review by id.
func (s *Store) GetReview(ctx context.Context, id string) (*Review, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return review, err
}

// ListReviewsByUser returns the user's reviews, newest first. A non-empty
// contentType restricts the list to movie or tv.
func (s *Store) ListReviewsByUser(ctx context.Context, userID, contentType string) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = ?`
	args := []any{userID}
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != "" {
		query += ` AND content_type = ?`
		args = append(args, ct)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	return s.queryReviews(ctx, query, args...)
}

// ListReviewsByContent returns every review of one title, newest first.
func (s *Store) ListReviewsByContent(ctx context.Context, contentType string, contentID int64) ([]Review, error) {
	return s.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE content_type = ? AND content_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		strings.ToLower(strings.TrimSpace(contentType)), contentID,
	)
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

func scanReview(row scanner) (*Review, error) {
	var (
		review     Review
		title      sql.NullString
		rating     sql.NullInt64
		body       sql.NullString
		sentiment  sql.NullString
		score      sql.NullFloat64
		genreIDs   sql.NullString
		createdRaw string
	)
	if err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.ContentID,
		&review.ContentType,
		&title,
		&rating,
		&body,
		&sentiment,
		&score,
		&genreIDs,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	review.Title = title.String
	review.Body = body.String
	review.Sentiment = sentiment.String
	if rating.Valid {
		v := int(rating.Int64)
		review.Rating = &v
	}
	if score.Valid {
		v := score.Float64
		review.SentimentScore = &v
	}
	if err := decodeJSON(genreIDs, &review.GenreIDs); err != nil {
		return nil, fmt.Errorf("decode review genre ids: %w", err)
	}
	if review.GenreIDs == nil {
		review.GenreIDs = []int{}
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse review created_at: %w", err)
	}
	review.CreatedAt = created
	return &review, nil
}
