package httpapi

import "paybench-engine/internal/domain"

// SalaryResponse is the resolved benchmark as served to the UI.
type SalaryResponse struct {
	Average           float64                 `json:"average"`
	High              int                     `json:"high"`
	Low               int                     `json:"low"`
	Year              int                     `json:"year"`
	Period            string                  `json:"period"`
	Title             string                  `json:"title"`
	Location          string                  `json:"location"`
	IDCode            string                  `json:"id_code,omitempty"`
	Tier              string                  `json:"tier"`
	IsGenericFallback bool                    `json:"is_generic_fallback"`
	Regional          *domain.BenchmarkRecord `json:"regional,omitempty"`
	AmbiguousMatches  []domain.JobTitleEntry  `json:"ambiguous_matches,omitempty"`
}

type SubmitSuggestionRequest struct {
	Title          string `json:"title"`
	Location       string `json:"location"`
	Country        string `json:"country"`
	SuggestedID    string `json:"suggested_gov_id"`
	SuggestedTitle string `json:"suggested_gov_title"`
	IsAutomatic    bool   `json:"is_automatic"`
}

type ApproveSuggestionRequest struct {
	SuggestionID string `json:"suggestion_id"`
	Title        string `json:"title"`
	Location     string `json:"location"`
	Country      string `json:"country"`
	SuggestedID  string `json:"suggested_gov_id"`
	Limit        int    `json:"limit"`
}
