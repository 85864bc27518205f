package httpapi

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"paybench-engine/internal/config"
	"paybench-engine/internal/errs"
	"paybench-engine/internal/jobcache"
	"paybench-engine/internal/provider"
)

// MarketHandler serves cached provider data: live listings, salary
// distribution, category taxonomy and salary history.
type MarketHandler struct {
	Jobs     *jobcache.Manager
	Dist     *jobcache.Manager
	Provider *provider.Client
	CfgVal   *atomic.Value
}

func (h MarketHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	title, location, country, ok := marketQuery(w, r)
	if !ok {
		return
	}

	limit := h.limit(r)
	payload, err := h.Jobs.Get(r.Context(), title, location, country, limit)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (h MarketHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	title, location, country, ok := marketQuery(w, r)
	if !ok {
		return
	}

	payload, err := h.Dist.Get(r.Context(), title, location, country, h.limit(r))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (h MarketHandler) Categories(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Provider.Categories(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (h MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payload, err := h.Provider.History(r.Context(), q.Get("category"), q.Get("location"), q.Get("country"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (h MarketHandler) limit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			return n
		}
	}
	cfg := h.CfgVal.Load().(config.Config)
	if cfg.Provider.ResultsPerPage > 0 {
		return cfg.Provider.ResultsPerPage
	}
	return 5
}

func marketQuery(w http.ResponseWriter, r *http.Request) (title, location, country string, ok bool) {
	q := r.URL.Query()
	title = cleanProviderTitle(q.Get("title"))
	location = strings.TrimSpace(q.Get("location"))
	country = q.Get("country")

	if title == "" {
		WriteDomainError(w, r, errs.Validation("title is required"))
		return "", "", "", false
	}
	// The provider's UK data is national-only; a location would just
	// shrink the result set to nothing.
	if provider.CountryCode(country) == "gb" {
		location = ""
	}
	return title, location, country, true
}

var (
	qualifierStrip = regexp.MustCompile(`\s*\(.*?\)\s*`)
	punctStrip     = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// cleanProviderTitle strips group qualifiers and punctuation the provider's
// text search chokes on.
func cleanProviderTitle(title string) string {
	s := qualifierStrip.ReplaceAllString(title, " ")
	s = punctStrip.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
