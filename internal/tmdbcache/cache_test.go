package tmdbcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marquee/internal/tmdbcache"
)

func openCache(t *testing.T) *tmdbcache.Cache {
	t.Helper()
	cache, err := tmdbcache.Open(t.TempDir(), time.Hour, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestOpenDisabled(t *testing.T) {
	if _, err := tmdbcache.Open("", time.Hour, nil); !errors.Is(err, tmdbcache.ErrDisabled) {
		t.Fatalf("expected ErrDisabled for empty dir, got %v", err)
	}
	if _, err := tmdbcache.Open(t.TempDir(), 0, nil); !errors.Is(err, tmdbcache.ErrDisabled) {
		t.Fatalf("expected ErrDisabled for zero ttl, got %v", err)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	cache := openCache(t)

	if _, ok := cache.Get("/movie/1?language=en-US"); ok {
		t.Fatal("expected miss on empty cache")
	}
	body := []byte(`{"id":1}`)
	if err := cache.Set("/movie/1?language=en-US", body); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok := cache.Get("/movie/1?language=en-US")
	if !ok || string(got) != string(body) {
		t.Fatalf("unexpected cached value %q (ok=%v)", got, ok)
	}
	if _, ok := cache.Get("/movie/1?language=fr-FR"); ok {
		t.Fatal("expected distinct keys per query")
	}
}

func TestPurgeRemovesEntries(t *testing.T) {
	cache := openCache(t)
	if err := cache.Set("/genre/movie/list", []byte(`{}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := cache.Purge(); err != nil {
		t.Fatalf("Purge returned error: %v", err)
	}
	if _, ok := cache.Get("/genre/movie/list"); ok {
		t.Fatal("expected entry to be purged")
	}
}

func TestDeleteRemovesOneEntry(t *testing.T) {
	cache := openCache(t)
	for _, key := range []string{"/movie/1", "/movie/2"} {
		if err := cache.Set(key, []byte(`{}`)); err != nil {
			t.Fatalf("Set(%q) returned error: %v", key, err)
		}
	}
	if err := cache.Delete("/movie/1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := cache.Get("/movie/1"); ok {
		t.Fatal("expected deleted entry to miss")
	}
	if _, ok := cache.Get("/movie/2"); !ok {
		t.Fatal("expected other entry to survive")
	}
	if err := cache.Delete("/movie/missing"); err != nil {
		t.Fatalf("Delete of missing key returned error: %v", err)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *tmdbcache.Cache
	if _, ok := cache.Get("x"); ok {
		t.Fatal("expected nil cache miss")
	}
	if err := cache.Set("x", nil); err != nil {
		t.Fatalf("expected nil cache set to succeed, got %v", err)
	}
	if err := cache.Delete("x"); err != nil {
		t.Fatalf("expected nil cache delete to succeed, got %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("expected nil cache close to succeed, got %v", err)
	}
}

func TestCollectGarbageOnQuietCache(t *testing.T) {
	cache := openCache(t)
	if err := cache.Set("/trending/movie/week", []byte(`{"results":[]}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := cache.CollectGarbage(context.Background()); err != nil {
		t.Fatalf("CollectGarbage returned error: %v", err)
	}
	var nilCache *tmdbcache.Cache
	if err := nilCache.CollectGarbage(context.Background()); err != nil {
		t.Fatalf("nil cache should be inert, got %v", err)
	}
}
