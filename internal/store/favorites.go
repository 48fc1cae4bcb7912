package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marquee/internal/services"
	"marquee/internal/validation"
)

const favoriteColumns = "user_id, tmdb_id, media_type, title, poster_path, genres_json, created_at"

// AddFavorite saves fav for its user. Adding an existing favorite is a no-op
// that returns the stored row and created=false.
func (s *Store) AddFavorite(ctx context.Context, fav Favorite) (*Favorite, bool, error) {
	ctx = ensureContext(ctx)
	fav.MediaType = strings.ToLower(strings.TrimSpace(fav.MediaType))
	fav.Genres = cleanLabels(fav.Genres)
	if err := validation.Struct(&fav); err != nil {
		return nil, false, services.Wrap(services.ErrValidation, "store", "add favorite", "", err)
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = s.now()
	}
	genres, err := encodeJSON(fav.Genres)
	if err != nil {
		return nil, false, fmt.Errorf("encode genres: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO favorites (`+favoriteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, tmdb_id, media_type) DO NOTHING`,
		fav.UserID, fav.TMDBID, fav.MediaType,
		nullableString(fav.Title), nullableString(fav.PosterPath), genres, formatTime(fav.CreatedAt),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("favorite rows affected: %w", err)
	}
	stored, err := s.getFavorite(ctx, fav.UserID, fav.TMDBID, fav.MediaType)
	if err != nil {
		return nil, false, err
	}
	return stored, affected > 0, nil
}

// ListFavorites returns the user's favorites, newest first. An empty
// mediaType lists both movies and shows.
func (s *Store) ListFavorites(ctx context.Context, userID, mediaType string) ([]Favorite, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = ?`
	args := []any{userID}
	if mt := strings.ToLower(strings.TrimSpace(mediaType)); mt != "" {
		query += ` AND media_type = ?`
		args = append(args, mt)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]Favorite, 0)
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, *fav)
	}
	return favorites, rows.Err()
}

// RemoveFavorite deletes a favorite, returning ErrNotFound when absent.
func (s *Store) RemoveFavorite(ctx context.Context, userID string, tmdbID int64, mediaType string) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND tmdb_id = ? AND media_type = ?`,
		userID, tmdbID, strings.ToLower(strings.TrimSpace(mediaType)),
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("favorite %s/%d: %w", mediaType, tmdbID, ErrNotFound)
	}
	return nil
}

// IsFavorite reports whether the user has saved the title.
func (s *Store) IsFavorite(ctx context.Context, userID string, tmdbID int64, mediaType string) (bool, error) {
	_, err := s.getFavorite(ensureContext(ctx), userID, tmdbID, strings.ToLower(strings.TrimSpace(mediaType)))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) getFavorite(ctx context.Context, userID string, tmdbID int64, mediaType string) (*Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? AND tmdb_id = ? AND media_type = ?`,
		userID, tmdbID, mediaType,
	)
	fav, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("favorite %s/%d: %w", mediaType, tmdbID, ErrNotFound)
	}
	return fav, err
}

func scanFavorite(row scanner) (*Favorite, error) {
	var (
		fav        Favorite
		title      sql.NullString
		posterPath sql.NullString
		genres     sql.NullString
		createdRaw string
	)
	if err := row.Scan(&fav.UserID, &fav.TMDBID, &fav.MediaType, &title, &posterPath, &genres, &createdRaw); err != nil {
		return nil, err
	}
	fav.Title = title.String
	fav.PosterPath = posterPath.String
	if err := decodeJSON(genres, &fav.Genres); err != nil {
		return nil, fmt.Errorf("decode favorite genres: %w", err)
	}
	if fav.Genres == nil {
		fav.Genres = []string{}
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse favorite created_at: %w", err)
	}
	fav.CreatedAt = created
	return &fav, nil
}

func cleanLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return out
}
