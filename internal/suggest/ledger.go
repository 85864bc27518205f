// Package suggest is the correction feedback loop: suggestions are
// deduplicated, vote-counted, and only land on the live cache after admin
// approval.
package suggest

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/domain"
	"paybench-engine/internal/errs"
	"paybench-engine/internal/store"
)

const Collection = "match_suggestions"

var idStrip = regexp.MustCompile(`[^A-Za-z0-9-]`)

type Ledger struct {
	db              *store.DB
	cacheCollection string
}

func NewLedger(db *store.DB, cacheCollection string) *Ledger {
	return &Ledger{db: db, cacheCollection: cacheCollection}
}

type Submission struct {
	Title          string
	Location       string
	Country        string
	SuggestedID    string
	SuggestedTitle string
	IsAutomatic    bool
}

// Submit records a correction. Repeat submissions of the same
// (title, suggestedId, country) identity bump the vote counter atomically
// instead of creating another row. A human submission permanently overrides a
// system-guessed one; the reverse never happens.
func (l *Ledger) Submit(ctx context.Context, s Submission) (*domain.Suggestion, error) {
	title := strings.ToLower(sanitizeText(s.Title))
	location := strings.ToLower(sanitizeText(s.Location))
	country := strings.ToLower(sanitizeText(s.Country))
	if country == "" {
		country = "gb"
	}
	suggestedID := strings.TrimSpace(idStrip.ReplaceAllString(s.SuggestedID, ""))

	if title == "" {
		return nil, errs.Validation("title is required")
	}
	if suggestedID == "" {
		return nil, errs.Validation("suggested id is empty after sanitization")
	}

	identity := map[string]any{
		"title":            title,
		"suggested_gov_id": suggestedID,
		"country":          country,
	}

	existing, err := l.db.Query(ctx, Collection, identity, 1)
	if err != nil {
		return nil, errs.Upstream(err, "suggestion lookup")
	}

	now := time.Now().UTC()

	if len(existing) > 0 {
		doc := existing[0]
		if err := l.db.Increment(ctx, Collection, doc.ID, "votes", 1); err != nil {
			return nil, errs.Upstream(err, "suggestion vote")
		}
		patch := map[string]any{"last_seen_at": now.Format(time.RFC3339)}
		if !s.IsAutomatic {
			// Human confirmation is sticky. Later automatic submissions
			// must not flip it back.
			patch["is_automatic_system_save"] = false
		}
		if err := l.db.Set(ctx, Collection, doc.ID, patch, true); err != nil {
			return nil, errs.Upstream(err, "suggestion update")
		}
		updated, _, err := l.db.Get(ctx, Collection, doc.ID)
		if err != nil {
			return nil, errs.Upstream(err, "suggestion reload")
		}
		return decode(updated), nil
	}

	id := uuid.NewString()
	fields := map[string]any{
		"title":                    title,
		"location":                 location,
		"country":                  country,
		"suggested_gov_id":         suggestedID,
		"suggested_gov_title":      sanitizeText(s.SuggestedTitle),
		"votes":                    1,
		"is_automatic_system_save": s.IsAutomatic,
		"first_seen_at":            now.Format(time.RFC3339),
		"last_seen_at":             now.Format(time.RFC3339),
	}
	if err := l.db.Set(ctx, Collection, id, fields, false); err != nil {
		return nil, errs.Upstream(err, "suggestion create")
	}
	doc := store.Doc{ID: id, Fields: fields}
	return decode(doc), nil
}

type Approval struct {
	SuggestionID string
	Title        string
	Location     string
	Country      string
	SuggestedID  string
	Limit        int
}

// Approve merge-writes the approved id onto the matching cache entry, then
// removes the suggestion from the queue. The merge keeps the cached listing
// payload intact.
func (l *Ledger) Approve(ctx context.Context, a Approval) error {
	if a.SuggestionID == "" || strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.SuggestedID) == "" {
		return errs.Validation("suggestion id, title and suggested id are required")
	}

	_, ok, err := l.db.Get(ctx, Collection, a.SuggestionID)
	if err != nil {
		return errs.Upstream(err, "suggestion lookup")
	}
	if !ok {
		return errs.NotFound("suggestion %s", a.SuggestionID)
	}

	country := strings.ToLower(strings.TrimSpace(a.Country))
	if country == "" {
		country = "gb"
	}
	key := cachekey.WithLimit(cachekey.DeriveKey(a.Title, a.Location, country), a.Limit)

	patch := map[string]any{
		"external_id": a.SuggestedID,
		"verified":    true,
		"approved_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := l.db.Set(ctx, l.cacheCollection, key, patch, true); err != nil {
		return errs.Upstream(err, "apply suggestion to cache")
	}

	if err := l.db.Delete(ctx, Collection, a.SuggestionID); err != nil {
		return errs.Upstream(err, "remove suggestion")
	}
	return nil
}

// Reject deletes the suggestion with no other side effect.
func (l *Ledger) Reject(ctx context.Context, suggestionID string) error {
	if suggestionID == "" {
		return errs.Validation("suggestion id is required")
	}
	_, ok, err := l.db.Get(ctx, Collection, suggestionID)
	if err != nil {
		return errs.Upstream(err, "suggestion lookup")
	}
	if !ok {
		return errs.NotFound("suggestion %s", suggestionID)
	}
	if err := l.db.Delete(ctx, Collection, suggestionID); err != nil {
		return errs.Upstream(err, "remove suggestion")
	}
	return nil
}

// List returns pending suggestions, most recently seen first.
func (l *Ledger) List(ctx context.Context) ([]domain.Suggestion, error) {
	docs, err := l.db.Query(ctx, Collection, nil, 0)
	if err != nil {
		return nil, errs.Upstream(err, "suggestion list")
	}
	out := make([]domain.Suggestion, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *decode(doc))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out, nil
}

func decode(doc store.Doc) *domain.Suggestion {
	return &domain.Suggestion{
		ID:             doc.ID,
		Title:          doc.String("title"),
		Location:       doc.String("location"),
		Country:        doc.String("country"),
		SuggestedID:    doc.String("suggested_gov_id"),
		SuggestedTitle: doc.String("suggested_gov_title"),
		Votes:          doc.Int("votes"),
		IsAutomatic:    doc.Bool("is_automatic_system_save"),
		FirstSeenAt:    doc.Time("first_seen_at"),
		LastSeenAt:     doc.Time("last_seen_at"),
	}
}

// sanitizeText trims and strips angle brackets; suggestion fields may end up
// rendered in an admin dashboard.
func sanitizeText(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	return strings.TrimSpace(s)
}
