package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteIndexSearch(t *testing.T) {
	var gotPath string
	var gotBody queryRequest
	var gotAppID, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAppID = r.Header.Get("X-Algolia-Application-Id")
		gotKey = r.Header.Get("X-Algolia-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": []map[string]any{{"title": "nurse"}},
		})
	}))
	defer srv.Close()

	c, err := NewClient("APPID", "secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}

	hits, err := c.Index("salary_benchmarks").Search(context.Background(), "nurse", Options{
		Filters:                []string{"country:gb", `searchLocation:"new york"`},
		HitsPerPage:            3,
		RemoveWordsIfNoResults: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits", len(hits))
	}

	if gotPath != "/1/indexes/salary_benchmarks/query" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAppID != "APPID" || gotKey != "secret" {
		t.Errorf("auth headers = %q / %q", gotAppID, gotKey)
	}
	if gotBody.Query != "nurse" {
		t.Errorf("query = %q", gotBody.Query)
	}
	if want := `country:gb AND searchLocation:"new york"`; gotBody.Filters != want {
		t.Errorf("filters = %q, want %q", gotBody.Filters, want)
	}
	if gotBody.HitsPerPage != 3 {
		t.Errorf("hitsPerPage = %d", gotBody.HitsPerPage)
	}
	if gotBody.RemoveWordsIfNoResults != "allOptional" {
		t.Errorf("removeWordsIfNoResults = %q", gotBody.RemoveWordsIfNoResults)
	}
}

func TestRemoteIndexSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient("APPID", "secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Index("x").Search(context.Background(), "q", Options{}); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "k"); err == nil {
		t.Error("empty app id accepted")
	}
	if _, err := NewClient("a", "  "); err == nil {
		t.Error("blank api key accepted")
	}
}
