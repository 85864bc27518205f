package httpapi

import (
	"encoding/json"
	"net/http"

	"paybench-engine/internal/events"
	"paybench-engine/internal/suggest"
)

type SuggestionHandler struct {
	Ledger *suggest.Ledger
	Hub    *events.Hub
}

func (h SuggestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}

	s, err := h.Ledger.Submit(r.Context(), suggest.Submission{
		Title:          req.Title,
		Location:       req.Location,
		Country:        req.Country,
		SuggestedID:    req.SuggestedID,
		SuggestedTitle: req.SuggestedTitle,
		IsAutomatic:    req.IsAutomatic,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeSuggestionSubmitted, 1, map[string]any{
		"id": s.ID, "votes": s.Votes,
	}))
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "id": s.ID, "votes": s.Votes})
}
