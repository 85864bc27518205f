package sweeper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/store"
)

func testSweeper(t *testing.T, collections ...string) (*Sweeper, *store.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "sweep.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	policies := cachekey.NewPolicies(db, cachekey.PoliciesCollection)
	return New(db, policies, dir, collections...), db, dir
}

func seedEntry(t *testing.T, db *store.DB, collection, id string, fields map[string]any) {
	t.Helper()
	if err := db.Set(context.Background(), collection, id, fields, false); err != nil {
		t.Fatal(err)
	}
}

func TestSweepDeletesExpiredOnly(t *testing.T) {
	s, db, _ := testSweeper(t, "jobs_cache")
	ctx := context.Background()

	seedEntry(t, db, cachekey.PoliciesCollection, "it-jobs", map[string]any{"tag": "it-jobs", "ttl_days": 7})

	now := time.Now().UTC()
	// Past precomputed expiry.
	seedEntry(t, db, "jobs_cache", "expired", map[string]any{
		"category_tag": "it-jobs",
		"fetched_at":   now.Add(-10 * 24 * time.Hour).Format(time.RFC3339),
		"expires_at":   now.Add(-time.Hour).Format(time.RFC3339),
	})
	// Legacy row, no expires_at, older than the 7-day policy.
	seedEntry(t, db, "jobs_cache", "legacy-stale", map[string]any{
		"category_tag": "it-jobs",
		"fetched_at":   now.Add(-8 * 24 * time.Hour).Format(time.RFC3339),
	})
	// Tag-less rows are always eligible.
	seedEntry(t, db, "jobs_cache", "untagged", map[string]any{
		"fetched_at": now.Format(time.RFC3339),
	})
	// Fresh rows survive.
	seedEntry(t, db, "jobs_cache", "fresh", map[string]any{
		"category_tag": "it-jobs",
		"fetched_at":   now.Format(time.RFC3339),
		"expires_at":   now.Add(7 * 24 * time.Hour).Format(time.RFC3339),
	})
	seedEntry(t, db, "jobs_cache", "legacy-fresh", map[string]any{
		"category_tag": "it-jobs",
		"fetched_at":   now.Add(-6 * 24 * time.Hour).Format(time.RFC3339),
	})

	counts, err := s.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["jobs_cache"] != 3 {
		t.Errorf("deleted = %d, want 3", counts["jobs_cache"])
	}

	left, err := db.Query(ctx, "jobs_cache", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	survivors := map[string]bool{}
	for _, doc := range left {
		survivors[doc.ID] = true
	}
	if len(survivors) != 2 || !survivors["fresh"] || !survivors["legacy-fresh"] {
		t.Errorf("survivors = %v", survivors)
	}
}

func TestSweepCoversAllCollections(t *testing.T) {
	s, db, _ := testSweeper(t, "jobs_cache", "distribution_cache")
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	for i := 0; i < 3; i++ {
		seedEntry(t, db, "jobs_cache", fmt.Sprintf("j%d", i), map[string]any{
			"category_tag": "it-jobs", "expires_at": past,
		})
	}
	seedEntry(t, db, "distribution_cache", "d0", map[string]any{
		"category_tag": "unknown", "expires_at": past,
	})

	counts, err := s.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["jobs_cache"] != 3 || counts["distribution_cache"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSweepSingleRunner(t *testing.T) {
	s, _, dir := testSweeper(t, "jobs_cache")

	// A second handle on the lock file stands in for a concurrent sweep.
	other := flock.New(filepath.Join(dir, "sweep.lock"))
	got, err := other.TryLock()
	if err != nil || !got {
		t.Fatalf("could not take lock: got=%v err=%v", got, err)
	}
	defer func() { _ = other.Unlock() }()

	if _, err := s.Sweep(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("err = %v, want ErrAlreadyRunning", err)
	}
}

func TestDeleteEligible(t *testing.T) {
	policies := cachekey.PolicySet{"it-jobs": 7}
	now := time.Now()

	mk := func(fields map[string]any) store.Doc {
		return store.Doc{ID: "x", Fields: fields}
	}

	if !deleteEligible(mk(map[string]any{}), policies, now) {
		t.Error("tag-less entry should be eligible")
	}
	if !deleteEligible(mk(map[string]any{
		"category_tag": "it-jobs",
	}), policies, now) {
		t.Error("entry with no timestamps should be eligible")
	}
	if deleteEligible(mk(map[string]any{
		"category_tag": "it-jobs",
		"expires_at":   now.Add(time.Hour).UTC().Format(time.RFC3339),
	}), policies, now) {
		t.Error("future expiry should not be eligible")
	}
	if !deleteEligible(mk(map[string]any{
		"category_tag": "it-jobs",
		"fetched_at":   now.Add(-8 * 24 * time.Hour).UTC().Format(time.RFC3339),
	}), policies, now) {
		t.Error("legacy entry past policy TTL should be eligible")
	}
}
