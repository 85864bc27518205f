package cachekey

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"paybench-engine/internal/store"
)

// DefaultTTLDays applies when a category tag is empty, unknown, or has no
// policy row.
const DefaultTTLDays = 120

// PoliciesCollection holds the CategoryPolicy reference rows.
const PoliciesCollection = "cache_policies"

// PolicySet maps category tags to TTLs in days.
type PolicySet map[string]int

func (p PolicySet) TTLFor(tag string) time.Duration {
	days := DefaultTTLDays
	if tag != "" {
		if d, ok := p[tag]; ok && d > 0 {
			days = d
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

// Policies is the process-wide read-through snapshot of CategoryPolicy rows,
// refreshed periodically from the store.
type Policies struct {
	db         *store.DB
	collection string
	snap       atomic.Value // stores PolicySet
}

func NewPolicies(db *store.DB, collection string) *Policies {
	p := &Policies{db: db, collection: collection}
	p.snap.Store(PolicySet{})
	return p
}

func (p *Policies) Refresh(ctx context.Context) error {
	docs, err := p.db.Query(ctx, p.collection, nil, 0)
	if err != nil {
		return fmt.Errorf("load cache policies: %w", err)
	}
	set := make(PolicySet, len(docs))
	for _, doc := range docs {
		tag := doc.String("tag")
		if tag == "" {
			tag = doc.ID
		}
		if days := doc.Int("ttl_days"); days > 0 {
			set[tag] = days
		}
	}
	p.snap.Store(set)
	return nil
}

func (p *Policies) Snapshot() PolicySet {
	return p.snap.Load().(PolicySet)
}

func (p *Policies) TTLFor(tag string) time.Duration {
	return p.Snapshot().TTLFor(tag)
}
