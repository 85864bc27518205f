package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything a reviewer
// of the config should know before it is saved.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Search.AppID = strings.TrimSpace(out.Search.AppID)
	out.Search.NationalIndex = strings.TrimSpace(out.Search.NationalIndex)
	out.Search.RegionalIndex = strings.TrimSpace(out.Search.RegionalIndex)
	out.Search.TitlesIndex = strings.TrimSpace(out.Search.TitlesIndex)
	out.Provider.Endpoint = strings.TrimRight(strings.TrimSpace(out.Provider.Endpoint), "/")

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Search.AppID == "" {
		res.addErr("search.app_id is required")
	}
	if out.Search.NationalIndex == "" {
		res.addErr("search.national_index is required")
	}
	if out.Search.RegionalIndex == "" {
		res.addErr("search.regional_index is required")
	}
	if out.Search.TitlesIndex == "" {
		res.addWarn("search.titles_index is empty; the UK title-dictionary tier will be skipped")
	}

	if out.Provider.ResultsPerPage <= 0 {
		out.Provider.ResultsPerPage = 5
	} else if out.Provider.ResultsPerPage > 50 {
		res.addErr("provider.results_per_page must be <= 50")
	}
	if out.Provider.RateLimitPerSec <= 0 {
		out.Provider.RateLimitPerSec = 2
	}
	if out.Provider.Burst <= 0 {
		out.Provider.Burst = 2
	}

	if out.Cache.SweepIntervalHours <= 0 {
		out.Cache.SweepIntervalHours = 24
	}
	if out.Cache.PolicyRefreshMinutes <= 0 {
		out.Cache.PolicyRefreshMinutes = 30
	}

	if strings.TrimSpace(out.Admin.Token) == "" {
		res.addWarn("admin.token is empty; admin routes will reject every request")
	}

	return out, res
}
