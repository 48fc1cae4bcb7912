package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"marquee/internal/affinity"
	"marquee/internal/services"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

type fakeStore struct {
	favorites []store.Favorite
	reviews   []store.Review
	saved     []affinity.Share
	saveErr   error
}

func (f *fakeStore) ListFavorites(_ context.Context, _ string, mediaType string) ([]store.Favorite, error) {
	var out []store.Favorite
	for _, fav := range f.favorites {
		if mediaType == "" || fav.MediaType == mediaType {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReviewsByUser(_ context.Context, _ string, contentType string) ([]store.Review, error) {
	var out []store.Review
	for _, r := range f.reviews {
		if contentType == "" || r.ContentType == contentType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveAffinitySnapshot(_ context.Context, userID string, shares []affinity.Share) (*store.AffinitySnapshot, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = shares
	return &store.AffinitySnapshot{UserID: userID, Shares: shares, ComputedAt: time.Unix(100, 0).UTC()}, nil
}

type fakeProvider struct {
	discover     map[int][]tmdb.Result
	trending     map[int][]tmdb.Result
	totalPages   int
	discoverErr  error
	discoverOpts []tmdb.DiscoverOptions
	trendingHits int
}

func (f *fakeProvider) Trending(_ context.Context, mediaType, window string, page int) (*tmdb.Response, error) {
	f.trendingHits++
	return &tmdb.Response{Page: page, Results: f.trending[page], TotalPages: f.totalPages}, nil
}

func (f *fakeProvider) Discover(_ context.Context, mediaType string, opts tmdb.DiscoverOptions) (*tmdb.Response, error) {
	f.discoverOpts = append(f.discoverOpts, opts)
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return &tmdb.Response{Page: opts.Page, Results: f.discover[opts.Page], TotalPages: f.totalPages}, nil
}

type fakeLabeler struct {
	labels map[int]string
	err    error
}

func (f fakeLabeler) Labels(context.Context) (map[int]string, error) { return f.labels, f.err }

func score(v float64) *float64 { return &v }

func titles(ids ...int64) []tmdb.Result {
	out := make([]tmdb.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, tmdb.Result{ID: id, Title: "t", MediaType: tmdb.MediaMovie})
	}
	return out
}

func ids(results []tmdb.Result) []int64 {
	out := make([]int64, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAffinityCombinesFavoritesAndPositiveReviews(t *testing.T) {
	st := &fakeStore{
		favorites: []store.Favorite{
			{TMDBID: 1, MediaType: "movie", Genres: []string{"Action", "Comedy"}},
			{TMDBID: 2, MediaType: "tv", Genres: []string{"Action"}},
		},
		reviews: []store.Review{
			{ContentID: 3, ContentType: "movie", Sentiment: "positive", GenreIDs: []int{28, 99}},
			{ContentID: 4, ContentType: "movie", Sentiment: "negative", GenreIDs: []int{18}},
		},
	}
	svc := New(st, &fakeProvider{}, fakeLabeler{labels: map[int]string{28: "Action", 18: "Drama", 99: "Documentary"}})

	profile, err := svc.Affinity(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Affinity: %v", err)
	}
	want := []affinity.Share{
		{Genre: "Action", Count: 3, Percent: 60},
		{Genre: "Comedy", Count: 1, Percent: 20},
		{Genre: "Documentary", Count: 1, Percent: 20},
	}
	if len(profile.Shares) != len(want) {
		t.Fatalf("unexpected shares %+v", profile.Shares)
	}
	for i := range want {
		if profile.Shares[i] != want[i] {
			t.Fatalf("share %d: expected %+v, got %+v", i, want[i], profile.Shares[i])
		}
	}
	if len(st.saved) != 3 {
		t.Fatalf("expected snapshot to be saved, got %+v", st.saved)
	}
	if !profile.ComputedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("expected snapshot time, got %v", profile.ComputedAt)
	}
}

func TestAffinitySurvivesCatalogueAndSnapshotFailures(t *testing.T) {
	st := &fakeStore{
		favorites: []store.Favorite{{TMDBID: 1, MediaType: "movie", Genres: []string{"Horror"}}},
		reviews:   []store.Review{{ContentID: 3, ContentType: "movie", Sentiment: "positive", GenreIDs: []int{28}}},
		saveErr:   errors.New("disk full"),
	}
	svc := New(st, &fakeProvider{}, fakeLabeler{err: errors.New("offline")})

	profile, err := svc.Affinity(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Affinity: %v", err)
	}
	if len(profile.Shares) != 1 || profile.Shares[0].Genre != "Horror" || profile.Shares[0].Percent != 100 {
		t.Fatalf("unexpected shares %+v", profile.Shares)
	}
}

func TestAffinityEmpty(t *testing.T) {
	svc := New(&fakeStore{}, &fakeProvider{}, nil)
	profile, err := svc.Affinity(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Affinity: %v", err)
	}
	if profile.Shares == nil || len(profile.Shares) != 0 {
		t.Fatalf("expected empty non-nil shares, got %#v", profile.Shares)
	}
	if _, err := svc.Affinity(context.Background(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecommendUsesTopGenresAndExcludesKnownTitles(t *testing.T) {
	st := &fakeStore{
		favorites: []store.Favorite{{TMDBID: 11, MediaType: "movie"}},
		reviews: []store.Review{
			{ContentID: 12, ContentType: "movie", Sentiment: "positive", SentimentScore: score(0.9), GenreIDs: []int{28, 12}},
			{ContentID: 13, ContentType: "movie", Sentiment: "negative", GenreIDs: []int{18}},
			{ContentID: 14, ContentType: "tv", Sentiment: "positive", GenreIDs: []int{10765}},
		},
	}
	provider := &fakeProvider{
		discover:   map[int][]tmdb.Result{1: titles(11, 12, 13, 20), 2: titles(21, 22)},
		totalPages: 5,
	}
	svc := New(st, provider, nil, WithTopGenres(2))

	recs, err := svc.Recommend(context.Background(), "u1", "Movie", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if recs.Reason != ReasonGenres || recs.ContentType != "movie" {
		t.Fatalf("unexpected recommendation header %+v", recs)
	}
	if len(recs.GenreIDs) != 2 || recs.GenreIDs[0] != 28 || recs.GenreIDs[1] != 12 {
		t.Fatalf("unexpected genres %v", recs.GenreIDs)
	}
	if got := ids(recs.Items); !equalIDs(got, []int64{20, 21, 22}) {
		t.Fatalf("unexpected items %v", got)
	}
	if len(provider.discoverOpts) != 2 {
		t.Fatalf("expected two discover pages, got %d", len(provider.discoverOpts))
	}
	if provider.trendingHits != 0 {
		t.Fatal("trending should not be used")
	}
}

func TestRecommendFallsBackToTrending(t *testing.T) {
	tests := []struct {
		name    string
		reviews []store.Review
	}{
		{name: "no reviews"},
		{name: "only negative", reviews: []store.Review{{ContentID: 1, ContentType: "tv", Sentiment: "negative", GenreIDs: []int{18}}}},
		{name: "discover empty", reviews: []store.Review{{ContentID: 1, ContentType: "tv", Sentiment: "positive", GenreIDs: []int{18}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{trending: map[int][]tmdb.Result{1: titles(1, 2, 3)}, totalPages: 1}
			svc := New(&fakeStore{reviews: tc.reviews}, provider, nil)
			recs, err := svc.Recommend(context.Background(), "u1", "tv", 10)
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if recs.Reason != ReasonTrending {
				t.Fatalf("expected trending reason, got %q", recs.Reason)
			}
			want := []int64{1, 2, 3}
			if tc.name != "no reviews" {
				want = []int64{2, 3}
			}
			if got := ids(recs.Items); !equalIDs(got, want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestRecommendValidatesInput(t *testing.T) {
	svc := New(&fakeStore{}, &fakeProvider{}, nil)
	if _, err := svc.Recommend(context.Background(), "u1", "person", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Recommend(context.Background(), "", "movie", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecommendPropagatesProviderErrors(t *testing.T) {
	st := &fakeStore{reviews: []store.Review{{ContentID: 1, ContentType: "movie", Sentiment: "positive", GenreIDs: []int{28}}}}
	provider := &fakeProvider{discoverErr: tmdb.ErrUnavailable}
	svc := New(st, provider, nil)
	if _, err := svc.Recommend(context.Background(), "u1", "movie", 5); !errors.Is(err, tmdb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
