// Package jobcache is the read-through cache between the HTTP surface and the
// job-market data provider.
package jobcache

import (
	"context"
	"log"
	"time"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/store"
)

// The two cache families this engine maintains.
const (
	CollectionJobs         = "jobs_cache"
	CollectionDistribution = "distribution_cache"
)

// Fetcher pulls fresh data from the provider on a cache miss.
type Fetcher func(ctx context.Context, title, location, country string, limit int) (map[string]any, error)

// Manager serves one cache family (jobs or distribution). Two concurrent
// requests for the same key may both miss and both write; writes are
// idempotent merges on the same deterministic key, so that is fine.
type Manager struct {
	db         *store.DB
	collection string
	policies   *cachekey.Policies
	fetch      Fetcher
	writeErrs  chan error
}

func New(db *store.DB, collection string, policies *cachekey.Policies, fetch Fetcher) *Manager {
	m := &Manager{
		db:         db,
		collection: collection,
		policies:   policies,
		fetch:      fetch,
		writeErrs:  make(chan error, 16),
	}
	// Cache writes are off the response path; their failures surface here.
	go func() {
		for err := range m.writeErrs {
			log.Printf("[cache] write failed collection=%s err=%v", collection, err)
		}
	}()
	return m
}

// Get returns the cached payload for a query, fetching from the provider when
// the entry is absent or expired. Read failures are logged and fail open to
// the provider; they never surface to the caller.
func (m *Manager) Get(ctx context.Context, title, location, country string, limit int) (map[string]any, error) {
	key := cachekey.WithLimit(cachekey.DeriveKey(title, location, country), limit)

	doc, ok, err := m.db.Get(ctx, m.collection, key)
	if err != nil {
		log.Printf("[cache] read failed collection=%s key=%s err=%v", m.collection, key, err)
		ok = false
	}
	if ok && !m.expired(doc, time.Now()) {
		return withApprovedID(payloadOf(doc), doc), nil
	}

	payload, err := m.fetch(ctx, title, location, country, limit)
	if err != nil {
		return nil, err
	}

	tag := CategoryTag(payload)
	now := time.Now().UTC()
	fields := map[string]any{
		"key":          key,
		"payload":      payload,
		"category_tag": tag,
		"fetched_at":   now.Format(time.RFC3339),
		"expires_at":   now.Add(m.policies.TTLFor(tag)).Format(time.RFC3339),
	}

	// Fire-and-forget relative to the response. Merge, never replace: an
	// approved external id on the stale entry must survive the refresh.
	go func() {
		wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.db.Set(wctx, m.collection, key, fields, true); err != nil {
			select {
			case m.writeErrs <- err:
			default:
				log.Printf("[cache] write failed collection=%s key=%s err=%v", m.collection, key, err)
			}
		}
	}()

	if ok {
		// Stale entry may still carry the approved id; it applies to the
		// fresh payload too.
		return withApprovedID(payload, doc), nil
	}
	return payload, nil
}

// expired reports whether a cache entry is past its lifetime. Entries written
// before expiry precomputation lack expires_at; those fall back to comparing
// age against a freshly looked-up policy.
func (m *Manager) expired(doc store.Doc, now time.Time) bool {
	if expires := doc.Time("expires_at"); !expires.IsZero() {
		return !now.Before(expires)
	}
	fetched := doc.Time("fetched_at")
	if fetched.IsZero() {
		return true
	}
	return now.Sub(fetched) >= m.policies.TTLFor(doc.String("category_tag"))
}

func payloadOf(doc store.Doc) map[string]any {
	if p, ok := doc.Fields["payload"].(map[string]any); ok {
		return p
	}
	return map[string]any{}
}

func withApprovedID(payload map[string]any, doc store.Doc) map[string]any {
	ext := doc.String("external_id")
	if ext == "" {
		return payload
	}
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	out["external_id"] = ext
	if doc.Bool("verified") {
		out["verified"] = true
	}
	return out
}

// CategoryTag digs the category classification out of the freshest listing.
// "unknown" when the payload carries none (distribution payloads never do).
func CategoryTag(payload map[string]any) string {
	results, ok := payload["results"].([]any)
	if !ok {
		return "unknown"
	}
	for _, item := range results {
		listing, ok := item.(map[string]any)
		if !ok {
			continue
		}
		category, ok := listing["category"].(map[string]any)
		if !ok {
			continue
		}
		if tag, ok := category["tag"].(string); ok && tag != "" {
			return tag
		}
	}
	return "unknown"
}
