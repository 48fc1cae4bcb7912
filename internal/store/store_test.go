package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"marquee/internal/affinity"
	"marquee/internal/services"
	"marquee/internal/store"
	"marquee/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if st.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %q", st.Path())
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := store.OpenPath(filepath.Join(cfg.Paths.DataDir, "marquee.db"))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	var version int
	if err := raw.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version < 1 {
		t.Fatalf("expected migrated user_version, got %d", version)
	}
	if _, err := raw.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	_ = raw.Close()

	if _, err := store.OpenPath(cfg.DatabasePath()); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestAddFavoriteIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	fav := store.Favorite{UserID: "u1", TMDBID: 603, MediaType: "Movie", Title: "The Matrix", Genres: []string{"Action", " ", "Science Fiction"}}
	first, created, err := st.AddFavorite(ctx, fav)
	if err != nil {
		t.Fatalf("AddFavorite failed: %v", err)
	}
	if !created {
		t.Fatal("expected first add to create a row")
	}
	if first.MediaType != "movie" || len(first.Genres) != 2 {
		t.Fatalf("unexpected stored favorite %#v", first)
	}

	fav.Title = "Renamed"
	second, created, err := st.AddFavorite(ctx, fav)
	if err != nil {
		t.Fatalf("second AddFavorite failed: %v", err)
	}
	if created {
		t.Fatal("expected second add to be a no-op")
	}
	if second.Title != "The Matrix" {
		t.Fatalf("expected original row to be kept, got %q", second.Title)
	}

	favorites, err := st.ListFavorites(ctx, "u1", "")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(favorites) != 1 {
		t.Fatalf("expected exactly one favorite, got %d", len(favorites))
	}

	ok, err := st.IsFavorite(ctx, "u1", 603, "movie")
	if err != nil || !ok {
		t.Fatalf("expected IsFavorite true, got %v %v", ok, err)
	}
}

func TestRemoveFavorite(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.AddFavorite(t, st, "u1", 1, "tv", "Drama")

	if err := st.RemoveFavorite(ctx, "u1", 1, "tv"); err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}
	if ok, err := st.IsFavorite(ctx, "u1", 1, "tv"); err != nil || ok {
		t.Fatalf("expected favorite removed, got %v %v", ok, err)
	}
	err := st.RemoveFavorite(ctx, "u1", 1, "tv")
	if !errors.Is(err, store.ErrNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestListFavoritesFiltersAndOrders(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, item := range []struct {
		id        int64
		mediaType string
	}{{1, "movie"}, {2, "tv"}, {3, "movie"}} {
		if _, _, err := st.AddFavorite(ctx, store.Favorite{UserID: "u1", TMDBID: item.id, MediaType: item.mediaType, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("AddFavorite failed: %v", err)
		}
	}
	testsupport.AddFavorite(t, st, "someone-else", 9, "movie")

	movies, err := st.ListFavorites(ctx, "u1", "movie")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(movies) != 2 || movies[0].TMDBID != 3 || movies[1].TMDBID != 1 {
		t.Fatalf("expected newest movie first, got %#v", movies)
	}
	if movies[0].Genres == nil {
		t.Fatal("expected empty genre list rather than nil")
	}
}

func TestAddFavoriteValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, _, err := st.AddFavorite(context.Background(), store.Favorite{UserID: "u1", TMDBID: 1, MediaType: "book"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReviewsNewestFirstAndFiltered(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	score := 0.9
	rating := 8
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := testsupport.CreateReview(t, st, store.Review{UserID: "u1", ContentID: 10, ContentType: "movie", Sentiment: "Positive", SentimentScore: &score, Rating: &rating, GenreIDs: []int{28, 12}, CreatedAt: base})
	newer := testsupport.CreateReview(t, st, store.Review{UserID: "u1", ContentID: 20, ContentType: "tv", Sentiment: "negative", GenreIDs: []int{18}, CreatedAt: base.Add(time.Hour)})
	testsupport.CreateReview(t, st, store.Review{UserID: "u2", ContentID: 10, ContentType: "movie", Body: "fine", CreatedAt: base.Add(2 * time.Hour)})

	if older.ID == "" || older.ID == newer.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", older.ID, newer.ID)
	}

	all, err := st.ListReviewsByUser(ctx, "u1", "")
	if err != nil {
		t.Fatalf("ListReviewsByUser failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Fatalf("expected newest review first, got %#v", all)
	}

	movies, err := st.ListReviewsByUser(ctx, "u1", "movie")
	if err != nil {
		t.Fatalf("ListReviewsByUser failed: %v", err)
	}
	if len(movies) != 1 || movies[0].Sentiment != "positive" || movies[0].SentimentScore == nil || *movies[0].SentimentScore != 0.9 {
		t.Fatalf("unexpected movie reviews %#v", movies)
	}
	if movies[0].Rating == nil || *movies[0].Rating != 8 {
		t.Fatalf("expected rating to round-trip, got %v", movies[0].Rating)
	}
	if got := movies[0].GenreIDs; len(got) != 2 || got[0] != 28 || got[1] != 12 {
		t.Fatalf("unexpected genre ids %v", got)
	}

	byContent, err := st.ListReviewsByContent(ctx, "movie", 10)
	if err != nil {
		t.Fatalf("ListReviewsByContent failed: %v", err)
	}
	if len(byContent) != 2 || byContent[0].UserID != "u2" {
		t.Fatalf("unexpected content reviews %#v", byContent)
	}

	fetched, err := st.GetReview(ctx, older.ID)
	if err != nil || fetched.ContentID != 10 {
		t.Fatalf("GetReview returned %#v, %v", fetched, err)
	}
	if _, err := st.GetReview(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	signals := make([]affinity.ReviewSignal, 0, len(all))
	for _, r := range all {
		signals = append(signals, r.Signal())
	}
	if top := affinity.TopGenres(signals, "movie", 2); len(top) != 2 || top[0] != 28 || top[1] != 12 {
		t.Fatalf("unexpected top genres from stored reviews %v", top)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	tooHigh := 1.5
	tests := []store.Review{
		{UserID: "", ContentID: 1, ContentType: "movie"},
		{UserID: "u1", ContentID: 0, ContentType: "movie"},
		{UserID: "u1", ContentID: 1, ContentType: "tv", Sentiment: "meh"},
		{UserID: "u1", ContentID: 1, ContentType: "tv", Sentiment: "positive", SentimentScore: &tooHigh},
	}
	for i, review := range tests {
		if _, err := st.CreateReview(context.Background(), review); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestPostsAndStories(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	post, err := st.CreatePost(ctx, store.Post{UserID: "u1", Body: "Loved it", TMDBID: 603, MediaType: "movie"}, 24*time.Hour)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.Kind != store.KindPost || post.ExpiresAt != nil {
		t.Fatalf("unexpected post %#v", post)
	}
	live, err := st.CreatePost(ctx, store.Post{UserID: "u2", Kind: "story", Body: "watching now"}, 24*time.Hour)
	if err != nil {
		t.Fatalf("CreatePost story failed: %v", err)
	}
	if live.ExpiresAt == nil || live.ExpiresAt.Sub(live.CreatedAt) != 24*time.Hour {
		t.Fatalf("expected 24h story expiry, got %#v", live)
	}
	expired, err := st.CreatePost(ctx, store.Post{UserID: "u1", Kind: "story", Body: "old", CreatedAt: now.Add(-25 * time.Hour)}, 24*time.Hour)
	if err != nil {
		t.Fatalf("CreatePost expired story failed: %v", err)
	}
	if !expired.Expired(now) {
		t.Fatal("expected story to report expired")
	}

	feed, err := st.Feed(ctx, 10)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected expired story hidden from feed, got %d posts", len(feed))
	}
	for _, p := range feed {
		if p.ID == expired.ID {
			t.Fatal("expired story listed in feed")
		}
	}

	mine, err := st.PostsByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("PostsByUser failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != post.ID || mine[0].TMDBID != 603 {
		t.Fatalf("unexpected user posts %#v", mine)
	}

	purged, err := st.PurgeExpiredStories(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredStories failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected one purged story, got %d", purged)
	}
	if _, err := st.GetPost(ctx, expired.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected purged story gone, got %v", err)
	}
}

func TestDeletePostOwnerOnly(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	post, err := st.CreatePost(ctx, store.Post{UserID: "owner", Body: "mine"}, 0)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := st.DeletePost(ctx, "intruder", post.ID); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := st.DeletePost(ctx, "owner", post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if err := st.DeletePost(ctx, "owner", post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cases := []store.Post{
		{UserID: "u1", Body: "   "},
		{UserID: "u1", Body: "x", Kind: "reel"},
		{UserID: "u1", Body: "x", TMDBID: 5},
	}
	for i, p := range cases {
		if _, err := st.CreatePost(ctx, p, time.Hour); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestAffinitySnapshotRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := st.LoadAffinitySnapshot(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	shares := []affinity.Share{{Genre: "Action", Count: 3, Percent: 60}, {Genre: "Drama", Count: 2, Percent: 40}}
	if _, err := st.SaveAffinitySnapshot(ctx, "u1", shares); err != nil {
		t.Fatalf("SaveAffinitySnapshot failed: %v", err)
	}
	if _, err := st.SaveAffinitySnapshot(ctx, "u1", shares[:1]); err != nil {
		t.Fatalf("second SaveAffinitySnapshot failed: %v", err)
	}
	snapshot, err := st.LoadAffinitySnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadAffinitySnapshot failed: %v", err)
	}
	if len(snapshot.Shares) != 1 || snapshot.Shares[0].Genre != "Action" || snapshot.ComputedAt.IsZero() {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}
