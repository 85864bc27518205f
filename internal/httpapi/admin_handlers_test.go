package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"paybench-engine/internal/events"
	"paybench-engine/internal/store"
	"paybench-engine/internal/suggest"
)

func testAdminHandler(t *testing.T) (AdminHandler, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return AdminHandler{
		Ledger: suggest.NewLedger(db, "jobs_cache"),
		Hub:    events.NewHub(),
		Sweep: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{"jobs_cache": 2, "distribution_cache": 0}, nil
		},
	}, db
}

func TestApproveSuggestionFlow(t *testing.T) {
	h, db := testAdminHandler(t)
	ctx := context.Background()

	sub, err := h.Ledger.Submit(ctx, suggest.Submission{
		Title: "nurse", Country: "gb", SuggestedID: "6141",
	})
	if err != nil {
		t.Fatal(err)
	}

	body := fmt.Sprintf(`{"suggestion_id":%q,"title":"nurse","country":"gb","suggested_gov_id":"6141"}`, sub.ID)
	req := httptest.NewRequest(http.MethodPost, "/admin/suggestions/approve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ApproveSuggestion(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	if _, ok, _ := db.Get(ctx, suggest.Collection, sub.ID); ok {
		t.Error("approved suggestion still queued")
	}

	// Default limit is 5, so the id lands on the -5 cache key.
	doc, ok, err := db.Get(ctx, "jobs_cache", "gb--nurse-5")
	if err != nil || !ok {
		t.Fatalf("cache entry: ok=%v err=%v", ok, err)
	}
	if doc.String("external_id") != "6141" {
		t.Errorf("external_id = %q", doc.String("external_id"))
	}
}

func TestApproveUnknownSuggestion(t *testing.T) {
	h, _ := testAdminHandler(t)

	body := `{"suggestion_id":"missing","title":"nurse","suggested_gov_id":"6141"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/suggestions/approve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ApproveSuggestion(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestRejectByPath(t *testing.T) {
	h, db := testAdminHandler(t)
	ctx := context.Background()

	sub, err := h.Ledger.Submit(ctx, suggest.Submission{Title: "nurse", SuggestedID: "6141"})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/suggestions/"+sub.ID, nil)
	rec := httptest.NewRecorder()
	h.RejectByPath(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	if _, ok, _ := db.Get(ctx, suggest.Collection, sub.ID); ok {
		t.Error("rejected suggestion still present")
	}

	// Trailing path segments are not ids.
	req = httptest.NewRequest(http.MethodDelete, "/admin/suggestions/a/b", nil)
	rec = httptest.NewRecorder()
	h.RejectByPath(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("nested path: code = %d", rec.Code)
	}
}

func TestSweepCache(t *testing.T) {
	h, _ := testAdminHandler(t)
	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	req := httptest.NewRequest(http.MethodPost, "/admin/cache/sweep", nil)
	rec := httptest.NewRecorder()
	h.SweepCache(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp struct {
		OK      bool           `json:"ok"`
		Deleted map[string]int `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Deleted["jobs_cache"] != 2 {
		t.Errorf("resp = %+v", resp)
	}

	select {
	case evt := <-sub:
		if !strings.Contains(evt, events.TypeCacheSwept) {
			t.Errorf("event = %s", evt)
		}
	default:
		t.Error("no sweep event published")
	}
}
