package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/services"
	"marquee/internal/tmdb"
)

func newClient(t *testing.T, handler http.HandlerFunc, opts ...tmdb.Option) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchSendsAPIKeyAndFillsMediaType(t *testing.T) {
	var gotQuery, gotPath string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Example","vote_average":7.5}]}`))
	})

	resp, err := client.Search(context.Background(), tmdb.SearchMovie, "Example", 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotPath != "/search/movie" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for _, fragment := range []string{"api_key=key", "query=Example", "language=en-US"} {
		if !strings.Contains(gotQuery, fragment) {
			t.Fatalf("expected %q in query %q", fragment, gotQuery)
		}
	}
	if len(resp.Results) != 1 || resp.Results[0].DisplayTitle() != "Example" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.Results[0].MediaType != tmdb.MediaMovie {
		t.Fatalf("expected media type to be filled, got %q", resp.Results[0].MediaType)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Search(context.Background(), tmdb.SearchMulti, "  ", 1)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty query, got %v", err)
	}
}

func TestHTTPErrorCarriesStatus(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status_code":500}`))
	})

	_, err := client.Trending(context.Background(), tmdb.MediaMovie, tmdb.WindowDay, 1)
	var statusErr *tmdb.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream classification, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, tmdb.WithBreaker(2, time.Minute))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Trending(ctx, tmdb.MediaAll, tmdb.WindowWeek, 1); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := client.Trending(ctx, tmdb.MediaAll, tmdb.WindowWeek, 1)
	if !errors.Is(err, tmdb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once the breaker opens, got %v", err)
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected services.ErrUnavailable classification, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected open breaker to skip the server, got %d hits", hits.Load())
	}
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, tmdb.WithBreaker(1, time.Minute))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.MovieDetails(ctx, 42)
		if !errors.Is(err, tmdb.ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if hits.Load() != 3 {
		t.Fatalf("expected every lookup to reach the server, got %d", hits.Load())
	}
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	var slow atomic.Bool
	slow.Store(true)
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(time.Second):
			}
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[],"total_pages":1,"total_results":0}`))
	}, tmdb.WithBreaker(3, time.Minute))

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := client.Trending(ctx, tmdb.MediaMovie, tmdb.WindowWeek, 1)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: expected deadline error, got %v", i, err)
		}
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		if _, err := client.Trending(cancelled, tmdb.MediaMovie, tmdb.WindowWeek, 1); !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled call %d: expected context.Canceled, got %v", i, err)
		}
	}

	slow.Store(false)
	if _, err := client.Trending(context.Background(), tmdb.MediaMovie, tmdb.WindowWeek, 1); err != nil {
		t.Fatalf("expected healthy call after abandoned requests, got %v", err)
	}
}

func TestDiscoverJoinsGenresWithOr(t *testing.T) {
	var genres, sortBy, path string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		genres = r.URL.Query().Get("with_genres")
		sortBy = r.URL.Query().Get("sort_by")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":5,"name":"Show","genre_ids":[18]}]}`))
	})

	resp, err := client.Discover(context.Background(), "TV", tmdb.DiscoverOptions{GenreIDs: []int{28, 0, 12}})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if path != "/discover/tv" {
		t.Fatalf("unexpected path %q", path)
	}
	if genres != "28|12" {
		t.Fatalf("expected OR-joined genres, got %q", genres)
	}
	if sortBy != "popularity.desc" {
		t.Fatalf("unexpected sort %q", sortBy)
	}
	if resp.Results[0].MediaType != tmdb.MediaTV {
		t.Fatalf("expected tv media type, got %q", resp.Results[0].MediaType)
	}
}

func TestListDropsInvalidRecords(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":1,"title":"Good","vote_average":6},
			{"id":0,"title":"No id"},
			{"id":2,"title":"Bad vote","vote_average":11},
			{"id":3,"title":"Odd type","media_type":"collection"}
		]}`))
	})

	resp, err := client.Trending(context.Background(), tmdb.MediaAll, tmdb.WindowDay, 1)
	if err != nil {
		t.Fatalf("Trending returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 1 {
		t.Fatalf("expected only the valid record, got %#v", resp.Results)
	}
}

func TestDetailsSetsMediaTypeAndGenres(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-30","genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
	})

	result, err := client.Details(context.Background(), "movie", 603)
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	if result.MediaType != tmdb.MediaMovie {
		t.Fatalf("unexpected media type %q", result.MediaType)
	}
	if year, ok := result.Year(); !ok || year != 1999 {
		t.Fatalf("unexpected year %d %v", year, ok)
	}
	ids := result.AllGenreIDs()
	if len(ids) != 2 || ids[0] != 28 || ids[1] != 878 {
		t.Fatalf("unexpected genre ids %v", ids)
	}
	if _, err := client.Details(context.Background(), "book", 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad media type, got %v", err)
	}
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *memCache) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *memCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func TestCacheServesRepeatRequests(t *testing.T) {
	var hits atomic.Int32
	cache := &memCache{items: map[string][]byte{}}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":7,"name":"Someone","popularity":3.5}`))
	}, tmdb.WithCache(cache))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		person, err := client.Person(ctx, 7)
		if err != nil {
			t.Fatalf("Person returned error: %v", err)
		}
		if person.Name != "Someone" {
			t.Fatalf("unexpected person %#v", person)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream request, got %d", hits.Load())
	}
	for key := range cache.items {
		if strings.Contains(key, "api_key") {
			t.Fatalf("cache key leaks api key: %q", key)
		}
		if !strings.HasPrefix(key, "/person/7") {
			t.Fatalf("unexpected cache key %q", key)
		}
	}
}

func TestTruncatedResponseIsNotCached(t *testing.T) {
	var hits atomic.Int32
	cache := &memCache{items: map[string][]byte{}}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"page":1,"results":[`))
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix","media_type":"movie"}],"total_pages":1,"total_results":1}`))
	}, tmdb.WithCache(cache))

	ctx := context.Background()
	if _, err := client.Trending(ctx, tmdb.MediaMovie, tmdb.WindowWeek, 1); !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream decode error, got %v", err)
	}
	if cache.len() != 0 {
		t.Fatalf("expected undecodable body to stay out of the cache, got %d entries", cache.len())
	}
	resp, err := client.Trending(ctx, tmdb.MediaMovie, tmdb.WindowWeek, 1)
	if err != nil {
		t.Fatalf("second Trending returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 603 {
		t.Fatalf("unexpected results %#v", resp.Results)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected a fresh upstream request, got %d", hits.Load())
	}
}

func TestCorruptCacheEntryIsRefetched(t *testing.T) {
	var hits atomic.Int32
	cache := &memCache{items: map[string][]byte{}}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":7,"name":"Someone","popularity":3.5}`))
	}, tmdb.WithCache(cache))

	ctx := context.Background()
	if _, err := client.Person(ctx, 7); err != nil {
		t.Fatalf("Person returned error: %v", err)
	}
	for key := range cache.items {
		cache.items[key] = []byte(`{"id":7,"na`)
	}
	person, err := client.Person(ctx, 7)
	if err != nil {
		t.Fatalf("Person with corrupt cache entry returned error: %v", err)
	}
	if person.Name != "Someone" {
		t.Fatalf("unexpected person %#v", person)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected corrupt entry to trigger a refetch, got %d upstream requests", hits.Load())
	}
	for key, body := range cache.items {
		if string(body) != `{"id":7,"name":"Someone","popularity":3.5}` {
			t.Fatalf("expected %q to hold the refetched body, got %q", key, body)
		}
	}
}

func TestPingReportsRejectedKey(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := client.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "rejected the api key") {
		t.Fatalf("expected api key rejection, got %v", err)
	}
}
