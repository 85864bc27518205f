package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"paybench-engine/internal/events"
	"paybench-engine/internal/suggest"
)

type AdminHandler struct {
	Ledger *suggest.Ledger
	Sweep  func(ctx context.Context) (map[string]int, error)
	Hub    *events.Hub
}

func (h AdminHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.Ledger.List(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h AdminHandler) ApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	var req ApproveSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	err := h.Ledger.Approve(r.Context(), suggest.Approval{
		SuggestionID: req.SuggestionID,
		Title:        req.Title,
		Location:     req.Location,
		Country:      req.Country,
		SuggestedID:  req.SuggestedID,
		Limit:        req.Limit,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeSuggestionApproved, 1, map[string]any{
		"id": req.SuggestionID,
	}))
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// RejectByPath expects /admin/suggestions/{id}.
func (h AdminHandler) RejectByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/admin/suggestions/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid suggestion id")
		return
	}

	if err := h.Ledger.Reject(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h AdminHandler) SweepCache(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Sweep(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeCacheSwept, 1, counts))
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": counts})
}
