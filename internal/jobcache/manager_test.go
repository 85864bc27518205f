package jobcache

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/store"
)

func testDeps(t *testing.T) (*store.DB, *cachekey.Policies) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, cachekey.NewPolicies(db, cachekey.PoliciesCollection)
}

func countingFetcher(calls *atomic.Int32, payload map[string]any) Fetcher {
	return func(ctx context.Context, title, location, country string, limit int) (map[string]any, error) {
		calls.Add(1)
		return payload, nil
	}
}

// waitForDoc polls for the async cache write to land.
func waitForDoc(t *testing.T, db *store.DB, collection, key string) store.Doc {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		doc, ok, err := db.Get(context.Background(), collection, key)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			return doc
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cache write for %s/%s never landed", collection, key)
	return store.Doc{}
}

func TestGetMissThenHit(t *testing.T) {
	db, policies := testDeps(t)
	var calls atomic.Int32
	payload := map[string]any{
		"count": 12.0,
		"results": []any{
			map[string]any{"category": map[string]any{"tag": "it-jobs"}},
		},
	}
	m := New(db, CollectionJobs, policies, countingFetcher(&calls, payload))
	ctx := context.Background()

	got, err := m.Get(ctx, "Software Engineer", "London", "gb", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got["count"] != 12.0 {
		t.Errorf("payload = %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch calls = %d", calls.Load())
	}

	key := cachekey.WithLimit(cachekey.DeriveKey("Software Engineer", "London", "gb"), 5)
	doc := waitForDoc(t, db, CollectionJobs, key)
	if doc.String("category_tag") != "it-jobs" {
		t.Errorf("category_tag = %q", doc.String("category_tag"))
	}
	if doc.Time("expires_at").IsZero() {
		t.Error("expires_at not precomputed")
	}

	if _, err := m.Get(ctx, "Software Engineer", "London", "gb", 5); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("hit still fetched, calls = %d", calls.Load())
	}

	// A differing limit is a different entry.
	if _, err := m.Get(ctx, "Software Engineer", "London", "gb", 10); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("limit variant should miss, calls = %d", calls.Load())
	}
}

func TestGetRefetchesPastExpiry(t *testing.T) {
	db, policies := testDeps(t)
	var calls atomic.Int32
	m := New(db, CollectionJobs, policies, countingFetcher(&calls, map[string]any{"fresh": true}))
	ctx := context.Background()

	key := cachekey.WithLimit(cachekey.DeriveKey("nurse", "", "gb"), 5)
	past := time.Now().UTC().Add(-time.Hour)
	seed := map[string]any{
		"payload":      map[string]any{"fresh": false},
		"category_tag": "healthcare-nursing-jobs",
		"fetched_at":   past.Add(-24 * time.Hour).Format(time.RFC3339),
		"expires_at":   past.Format(time.RFC3339),
	}
	if err := db.Set(ctx, CollectionJobs, key, seed, false); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get(ctx, "nurse", "", "gb", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got["fresh"] != true {
		t.Errorf("expired entry served stale payload: %v", got)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d", calls.Load())
	}
}

func TestGetLegacyEntryAgesOutByPolicy(t *testing.T) {
	db, policies := testDeps(t)
	ctx := context.Background()
	if err := db.Set(ctx, cachekey.PoliciesCollection, "it-jobs", map[string]any{"tag": "it-jobs", "ttl_days": 7}, false); err != nil {
		t.Fatal(err)
	}
	if err := policies.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	m := New(db, CollectionJobs, policies, countingFetcher(&calls, map[string]any{"fresh": true}))

	// No expires_at on legacy rows; age vs policy decides.
	seedLegacy := func(key string, age time.Duration) {
		t.Helper()
		fields := map[string]any{
			"payload":      map[string]any{"fresh": false},
			"category_tag": "it-jobs",
			"fetched_at":   time.Now().UTC().Add(-age).Format(time.RFC3339),
		}
		if err := db.Set(ctx, CollectionJobs, key, fields, false); err != nil {
			t.Fatal(err)
		}
	}

	staleKey := cachekey.WithLimit(cachekey.DeriveKey("dev", "leeds", "gb"), 5)
	seedLegacy(staleKey, 8*24*time.Hour)
	got, err := m.Get(ctx, "dev", "leeds", "gb", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got["fresh"] != true {
		t.Error("8-day-old legacy entry under a 7-day policy should refetch")
	}

	freshKey := cachekey.WithLimit(cachekey.DeriveKey("dev", "york", "gb"), 5)
	seedLegacy(freshKey, 6*24*time.Hour)
	got, err = m.Get(ctx, "dev", "york", "gb", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got["fresh"] != false {
		t.Error("6-day-old legacy entry under a 7-day policy should serve cached")
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d", calls.Load())
	}
}

func TestApprovedIDSurvivesRefresh(t *testing.T) {
	db, policies := testDeps(t)
	var calls atomic.Int32
	m := New(db, CollectionJobs, policies, countingFetcher(&calls, map[string]any{"count": 1.0}))
	ctx := context.Background()

	key := cachekey.WithLimit(cachekey.DeriveKey("nurse", "", "gb"), 5)
	seed := map[string]any{
		"payload":     map[string]any{"count": 0.0},
		"external_id": "6141",
		"verified":    true,
		"fetched_at":  time.Now().UTC().Add(-200 * 24 * time.Hour).Format(time.RFC3339),
		"expires_at":  time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}
	if err := db.Set(ctx, CollectionJobs, key, seed, false); err != nil {
		t.Fatal(err)
	}

	// Expired entry refetches, but its approved id rides on the fresh payload.
	got, err := m.Get(ctx, "nurse", "", "gb", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got["external_id"] != "6141" || got["verified"] != true {
		t.Errorf("approved id lost on refresh: %v", got)
	}
	if got["count"] != 1.0 {
		t.Errorf("stale payload served: %v", got)
	}

	// The merge write must keep external_id on the stored row too.
	deadline := time.Now().Add(5 * time.Second)
	for {
		doc, ok, err := db.Get(ctx, CollectionJobs, key)
		if err != nil {
			t.Fatal(err)
		}
		if ok && doc.Time("expires_at").After(time.Now()) {
			if doc.String("external_id") != "6141" {
				t.Errorf("stored external_id = %q", doc.String("external_id"))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("refresh write never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCategoryTag(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"first tagged listing", map[string]any{"results": []any{
			map[string]any{"category": map[string]any{"tag": "engineering-jobs"}},
			map[string]any{"category": map[string]any{"tag": "it-jobs"}},
		}}, "engineering-jobs"},
		{"skips untagged", map[string]any{"results": []any{
			map[string]any{"title": "x"},
			map[string]any{"category": map[string]any{"tag": "sales-jobs"}},
		}}, "sales-jobs"},
		{"no results", map[string]any{"histogram": map[string]any{}}, "unknown"},
		{"empty results", map[string]any{"results": []any{}}, "unknown"},
	}
	for _, c := range cases {
		if got := CategoryTag(c.payload); got != c.want {
			t.Errorf("%s: CategoryTag = %q, want %q", c.name, got, c.want)
		}
	}
}
