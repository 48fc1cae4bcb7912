package testsupport

import (
	"context"
	"testing"

	"marquee/internal/config"
	"marquee/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddFavorite saves a favorite for tests.
func AddFavorite(t testing.TB, st *store.Store, userID string, tmdbID int64, mediaType string, genres ...string) *store.Favorite {
	t.Helper()

	fav, _, err := st.AddFavorite(context.Background(), store.Favorite{
		UserID:    userID,
		TMDBID:    tmdbID,
		MediaType: mediaType,
		Genres:    genres,
	})
	if err != nil {
		t.Fatalf("store.AddFavorite: %v", err)
	}
	return fav
}

// CreateReview stores a review for tests.
func CreateReview(t testing.TB, st *store.Store, review store.Review) *store.Review {
	t.Helper()

	created, err := st.CreateReview(context.Background(), review)
	if err != nil {
		t.Fatalf("store.CreateReview: %v", err)
	}
	return created
}
