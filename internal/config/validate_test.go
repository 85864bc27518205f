package config

import (
	"strings"
	"testing"
)

func validCfg() Config {
	var cfg Config
	cfg.App.Port = 38472
	cfg.Search.AppID = "APPID"
	cfg.Search.NationalIndex = "salary_benchmarks"
	cfg.Search.RegionalIndex = "regional_salary_benchmarks"
	cfg.Search.TitlesIndex = "job_titles"
	cfg.Provider.Endpoint = "https://api.adzuna.com"
	cfg.Admin.Token = "secret"
	return cfg
}

func TestNormalizeAndValidateOK(t *testing.T) {
	cfg, vr := NormalizeAndValidate(validCfg())
	if !vr.OK() {
		t.Fatalf("errors = %v", vr.Errors)
	}
	if len(vr.Warnings) != 0 {
		t.Errorf("warnings = %v", vr.Warnings)
	}
	if cfg.Provider.ResultsPerPage != 5 || cfg.Provider.RateLimitPerSec != 2 || cfg.Provider.Burst != 2 {
		t.Errorf("provider defaults not applied: %+v", cfg.Provider)
	}
	if cfg.Cache.SweepIntervalHours != 24 || cfg.Cache.PolicyRefreshMinutes != 30 {
		t.Errorf("cache defaults not applied: %+v", cfg.Cache)
	}
}

func TestNormalizeTrimsFields(t *testing.T) {
	in := validCfg()
	in.Search.AppID = "  APPID  "
	in.Provider.Endpoint = " https://api.adzuna.com/ "

	cfg, vr := NormalizeAndValidate(in)
	if !vr.OK() {
		t.Fatalf("errors = %v", vr.Errors)
	}
	if cfg.Search.AppID != "APPID" {
		t.Errorf("app id = %q", cfg.Search.AppID)
	}
	if cfg.Provider.Endpoint != "https://api.adzuna.com" {
		t.Errorf("endpoint = %q", cfg.Provider.Endpoint)
	}
}

func TestValidateErrors(t *testing.T) {
	in := validCfg()
	in.App.Port = 0
	in.Search.AppID = ""
	in.Provider.ResultsPerPage = 100

	_, vr := NormalizeAndValidate(in)
	if vr.OK() {
		t.Fatal("expected errors")
	}
	wantSubstrings := []string{"app.port", "search.app_id", "results_per_page"}
	joined := strings.Join(vr.Errors, "\n")
	for _, w := range wantSubstrings {
		if !strings.Contains(joined, w) {
			t.Errorf("errors missing %q: %v", w, vr.Errors)
		}
	}
}

func TestValidateWarnings(t *testing.T) {
	in := validCfg()
	in.Search.TitlesIndex = ""
	in.Admin.Token = ""

	_, vr := NormalizeAndValidate(in)
	if !vr.OK() {
		t.Fatalf("errors = %v", vr.Errors)
	}
	if len(vr.Warnings) != 2 {
		t.Errorf("warnings = %v", vr.Warnings)
	}
}
