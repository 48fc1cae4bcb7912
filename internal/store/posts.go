package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"marquee/internal/services"
	"marquee/internal/validation"
)

const postColumns = "id, user_id, kind, body, tmdb_id, media_type, created_at, expires_at"

// CreatePost stores a post or story. Stories expire storyTTL after creation.
func (s *Store) CreatePost(ctx context.Context, post Post, storyTTL time.Duration) (*Post, error) {
	ctx = ensureContext(ctx)
	post.Kind = strings.ToLower(strings.TrimSpace(post.Kind))
	if post.Kind == "" {
		post.Kind = KindPost
	}
	post.Body = strings.TrimSpace(post.Body)
	post.MediaType = strings.ToLower(strings.TrimSpace(post.MediaType))
	if err := validation.Struct(&post); err != nil {
		return nil, services.Wrap(services.ErrValidation, "store", "create post", "", err)
	}
	if (post.TMDBID > 0) != (post.MediaType != "") {
		return nil, services.Wrap(services.ErrValidation, "store", "create post", "tmdb_id and media_type must be set together", nil)
	}
	post.ID = uuid.NewString()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}
	post.ExpiresAt = nil
	if post.Kind == KindStory {
		if storyTTL <= 0 {
			storyTTL = 24 * time.Hour
		}
		expires := post.CreatedAt.Add(storyTTL)
		post.ExpiresAt = &expires
	}

	if _, err := s.execWithRetry(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.UserID, post.Kind, post.Body,
		nullableInt64(post.TMDBID), nullableString(post.MediaType),
		formatTime(post.CreatedAt), nullableTime(post.ExpiresAt),
	); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

// Feed returns the newest visible posts across all users.
func (s *Store) Feed(ctx context.Context, limit int) ([]Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE expires_at IS NULL OR expires_at > ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		formatTime(s.now()), normalizeLimit(limit),
	)
}

// PostsByUser returns the user's visible posts, newest first.
func (s *Store) PostsByUser(ctx context.Context, userID string, limit int) ([]Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = ? AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, formatTime(s.now()), normalizeLimit(limit),
	)
}

// GetPost fetches one post regardless of expiry.
func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return post, err
}

// DeletePost removes a post owned by userID. Deleting another user's post
// returns ErrForbidden.
func (s *Store) DeletePost(ctx context.Context, userID, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("post %s: %w", id, ErrForbidden)
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// PurgeExpiredStories deletes stories whose expiry has passed and returns how
// many were removed.
func (s *Store) PurgeExpiredStories(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM posts WHERE kind = ? AND expires_at IS NOT NULL AND expires_at <= ?`,
		KindStory, formatTime(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired stories: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanPost(row scanner) (*Post, error) {
	var (
		post       Post
		tmdbID     sql.NullInt64
		mediaType  sql.NullString
		createdRaw string
		expiresRaw sql.NullString
	)
	if err := row.Scan(&post.ID, &post.UserID, &post.Kind, &post.Body, &tmdbID, &mediaType, &createdRaw, &expiresRaw); err != nil {
		return nil, err
	}
	post.TMDBID = tmdbID.Int64
	post.MediaType = mediaType.String
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse post created_at: %w", err)
	}
	post.CreatedAt = created
	if expiresRaw.Valid && expiresRaw.String != "" {
		expires, err := parseTimeString(expiresRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse post expires_at: %w", err)
		}
		post.ExpiresAt = &expires
	}
	return &post, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
