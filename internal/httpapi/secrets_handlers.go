package httpapi

import (
	"encoding/json"
	"net/http"

	"paybench-engine/internal/secrets"
)

// SecretsHandler stores collaborator credentials in the OS keychain. The
// engine never persists them in config or the database.
type SecretsHandler struct{}

func (h SecretsHandler) SetProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID  string `json:"app_id"`
		AppKey string `json:"app_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if err := secrets.SetProviderCredentials(req.AppID, req.AppKey); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h SecretsHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if err := secrets.SetSearchAPIKey(req.APIKey); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}
