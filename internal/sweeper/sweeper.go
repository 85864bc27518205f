// Package sweeper batch-deletes expired cache entries.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/store"
)

// Sweeper scans the cache collections and deletes entries whose TTL has
// elapsed. Deletions are committed in batches; the sweep as a whole is not
// transactional, so batches already committed survive a later failure.
type Sweeper struct {
	db          *store.DB
	policies    *cachekey.Policies
	collections []string
	lock        *flock.Flock
}

func New(db *store.DB, policies *cachekey.Policies, dataDir string, collections ...string) *Sweeper {
	return &Sweeper{
		db:          db,
		policies:    policies,
		collections: collections,
		lock:        flock.New(filepath.Join(dataDir, "sweep.lock")),
	}
}

// ErrAlreadyRunning is returned when another sweep holds the lock.
var ErrAlreadyRunning = fmt.Errorf("sweep already running")

// Sweep runs one pass over every cache collection and returns deletion counts
// per collection. A failing batch aborts the remainder of that collection's
// sweep; other collections still run.
func (s *Sweeper) Sweep(ctx context.Context) (map[string]int, error) {
	got, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("sweep lock: %w", err)
	}
	if !got {
		return nil, ErrAlreadyRunning
	}
	defer func() { _ = s.lock.Unlock() }()

	// One policy snapshot for the whole pass.
	if err := s.policies.Refresh(ctx); err != nil {
		return nil, err
	}
	policies := s.policies.Snapshot()
	now := time.Now()

	counts := make(map[string]int, len(s.collections))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, collection := range s.collections {
		g.Go(func() error {
			deleted, err := s.sweepCollection(gctx, collection, policies, now)
			mu.Lock()
			counts[collection] = deleted
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("sweep %s: %w", collection, err)
			}
			log.Printf("[sweep] collection=%s deleted=%d", collection, deleted)
			return nil
		})
	}
	err = g.Wait()
	return counts, err
}

func (s *Sweeper) sweepCollection(ctx context.Context, collection string, policies cachekey.PolicySet, now time.Time) (int, error) {
	docs, err := s.db.Query(ctx, collection, nil, 0)
	if err != nil {
		return 0, err
	}

	var eligible []string
	for _, doc := range docs {
		if deleteEligible(doc, policies, now) {
			eligible = append(eligible, doc.ID)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}
	return s.db.DeleteBatch(ctx, collection, eligible)
}

// deleteEligible classifies one cache entry. Tag-less entries are always
// eligible; legacy entries without a precomputed expiry are aged against the
// policy snapshot.
func deleteEligible(doc store.Doc, policies cachekey.PolicySet, now time.Time) bool {
	tag := doc.String("category_tag")
	if tag == "" {
		return true
	}
	if expires := doc.Time("expires_at"); !expires.IsZero() {
		return !now.Before(expires)
	}
	fetched := doc.Time("fetched_at")
	if fetched.IsZero() {
		return true
	}
	return now.Sub(fetched) >= policies.TTLFor(tag)
}
