package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// countingFetcher is an in-memory backing store that records fetch calls.
type countingFetcher struct {
	objects map[string][]byte
	calls   int
}

func (f *countingFetcher) Fetch(_ context.Context, bucket, key string) ([]byte, error) {
	f.calls++
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such object %s/%s", bucket, key)
	}
	return data, nil
}

func newTestCache(t *testing.T, backing Fetcher) (*CachedFetcher, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cf := NewCachedFetcher(srv.Addr(), backing, time.Hour)
	t.Cleanup(func() { cf.Close() })
	return cf, srv
}

func TestCachedFetchReadThrough(t *testing.T) {
	backing := &countingFetcher{objects: map[string][]byte{
		"models/model_v1/vectorizer.json": []byte(`{"vocabulary":{}}`),
	}}
	cf, _ := newTestCache(t, backing)
	ctx := context.Background()

	first, err := cf.Fetch(ctx, "models", "model_v1/vectorizer.json")
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := cf.Fetch(ctx, "models", "model_v1/vectorizer.json")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("cached bytes differ: %q vs %q", first, second)
	}
	if backing.calls != 1 {
		t.Errorf("backing store fetched %d times, want 1 (second hit served from cache)", backing.calls)
	}
}

func TestCachedFetchKeyIsolation(t *testing.T) {
	backing := &countingFetcher{objects: map[string][]byte{
		"models/a": []byte("alpha"),
		"models/b": []byte("beta"),
	}}
	cf, srv := newTestCache(t, backing)
	ctx := context.Background()

	a, err := cf.Fetch(ctx, "models", "a")
	if err != nil {
		t.Fatalf("fetch a failed: %v", err)
	}
	b, err := cf.Fetch(ctx, "models", "b")
	if err != nil {
		t.Fatalf("fetch b failed: %v", err)
	}
	if string(a) != "alpha" || string(b) != "beta" {
		t.Errorf("fetched (%q, %q), want (alpha, beta)", a, b)
	}
	if got, err := srv.Get("artifact:models/a"); err != nil || got != "alpha" {
		t.Errorf("cache entry for a = (%q, %v)", got, err)
	}
}

func TestCachedFetchBackingError(t *testing.T) {
	backing := &countingFetcher{objects: map[string][]byte{}}
	cf, srv := newTestCache(t, backing)

	if _, err := cf.Fetch(context.Background(), "models", "missing"); err == nil {
		t.Fatal("expected error for missing backing object")
	}
	// A failed fetch must not leave a cache entry behind.
	if srv.Exists("artifact:models/missing") {
		t.Error("failed fetch left a cache entry")
	}
}

func TestCachedFetchRedisDownFallsThrough(t *testing.T) {
	backing := &countingFetcher{objects: map[string][]byte{
		"models/a": []byte("alpha"),
	}}
	srv := miniredis.RunT(t)
	cf := NewCachedFetcher(srv.Addr(), backing, time.Hour)
	t.Cleanup(func() { cf.Close() })
	srv.Close()

	data, err := cf.Fetch(context.Background(), "models", "a")
	if err != nil {
		t.Fatalf("fetch with redis down failed: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("fetched %q, want alpha", data)
	}
	if backing.calls != 1 {
		t.Errorf("backing store fetched %d times, want 1", backing.calls)
	}
}

func TestCachedFetchExpiry(t *testing.T) {
	backing := &countingFetcher{objects: map[string][]byte{
		"models/a": []byte("alpha"),
	}}
	srv := miniredis.RunT(t)
	cf := NewCachedFetcher(srv.Addr(), backing, time.Minute)
	t.Cleanup(func() { cf.Close() })
	ctx := context.Background()

	if _, err := cf.Fetch(ctx, "models", "a"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	srv.FastForward(2 * time.Minute)

	if _, err := cf.Fetch(ctx, "models", "a"); err != nil {
		t.Fatalf("fetch after expiry failed: %v", err)
	}
	if backing.calls != 2 {
		t.Errorf("backing store fetched %d times, want 2 after TTL expiry", backing.calls)
	}
}
