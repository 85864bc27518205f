// Package resolver turns a free-text (title, location, country) query into a
// salary benchmark, degrading through match tiers when an exact match is
// unavailable.
package resolver

import (
	"context"
	"log"
	"regexp"
	"strings"

	"paybench-engine/internal/domain"
	"paybench-engine/internal/errs"
	"paybench-engine/internal/search"
)

// Tier names which cascade step produced the record.
type Tier string

const (
	TierExact   Tier = "exact"
	TierFuzzy   Tier = "fuzzy"
	TierDirect  Tier = "direct"
	TierGeneric Tier = "generic"
)

// Indexes are the three search indices the cascade reads.
type Indexes struct {
	National search.Index // national benchmarks
	Regional search.Index // regional benchmarks
	Titles   search.Index // title dictionary (UK only)
}

type Resolver struct {
	idx Indexes
}

func New(idx Indexes) *Resolver {
	return &Resolver{idx: idx}
}

type Query struct {
	Title    string
	Location string
	Country  string
	Period   string // defaults to "year"
	IDCode   string // optional classification code; bypasses fuzzy search
}

type Result struct {
	Record          domain.BenchmarkRecord
	Regional        *domain.BenchmarkRecord // overlay for the query location, if any
	Ambiguous       []domain.JobTitleEntry  // set when the fuzzy tier spans several groups
	Tier            Tier
	GenericFallback bool
	Band            domain.Band
}

// Resolve runs the country-specific cascade. Tier failures abort with an
// upstream error; a failure is not a "no match".
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Title) == "" {
		return nil, errs.Validation("title is required")
	}
	if q.Period == "" {
		q.Period = "year"
	}

	var (
		res *Result
		err error
	)
	if isUSA(q.Country) {
		res, err = r.resolveUSA(ctx, q)
	} else {
		res, err = r.resolveUK(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		// Only reachable when even the generic tier found an empty index.
		return nil, errs.NotFound("no benchmark for %q in %s", q.Title, q.Country)
	}

	// The band follows the most local salary we found.
	salary := res.Record.Salary
	if res.Regional != nil {
		salary = res.Regional.Salary
	}
	res.Band = domain.BandFor(salary)
	return res, nil
}

func isUSA(country string) bool {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "usa", "us":
		return true
	default:
		return false
	}
}

var (
	groupQualifier = regexp.MustCompile(`^(.*?)\s*\((.*?)\)$`)
	titleStrip     = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceCollapse  = regexp.MustCompile(`\s+`)
)

// splitGroup peels a trailing "(Group)" qualifier off the raw title.
func splitGroup(title string) (searchTitle, targetGroup string) {
	searchTitle = strings.ReplaceAll(title, "-", " ")
	if m := groupQualifier.FindStringSubmatch(searchTitle); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return searchTitle, ""
}

func sanitizeTitle(title string) string {
	s := strings.ToLower(title)
	s = titleStrip.ReplaceAllString(s, " ")
	s = spaceCollapse.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// benchmarkSearch runs one tier query against a benchmarks index.
func benchmarkSearch(ctx context.Context, idx search.Index, text string, opts search.Options) ([]domain.BenchmarkRecord, error) {
	hits, err := idx.Search(ctx, text, opts)
	if err != nil {
		return nil, errs.Upstream(err, "benchmark search")
	}
	return search.DecodeHits[domain.BenchmarkRecord](hits), nil
}

// regionalOverlay finds the regional variant of a matched benchmark. The first
// hit whose location contains, or is contained by, the query location wins;
// it is a substring tie-break, not a ranked best match, and one location name
// being a substring of another can mis-select. Known approximation.
// Overlay failures are logged and swallowed so they never block the national
// result.
func (r *Resolver) regionalOverlay(ctx context.Context, country, period, location string) *domain.BenchmarkRecord {
	if len(location) <= 2 {
		return nil
	}
	locLower := strings.ToLower(location)
	records, err := benchmarkSearch(ctx, r.idx.Regional, "", search.Options{
		Filters: []string{
			search.Filter("country", country),
			search.Filter("period", period),
			search.Filter("searchLocation", locLower),
		},
		HitsPerPage: 10,
	})
	if err != nil {
		log.Printf("[resolve] regional overlay lookup failed: %v", err)
		return nil
	}
	for _, rec := range records {
		recLoc := strings.ToLower(rec.Location)
		if strings.Contains(recLoc, locLower) || strings.Contains(locLower, recLoc) {
			return &rec
		}
	}
	return nil
}

// genericFallback fetches the baseline "professional" benchmark. Always
// returns a candidate while the national index is non-empty.
func (r *Resolver) genericFallback(ctx context.Context, country, period string) (*Result, error) {
	records, err := benchmarkSearch(ctx, r.idx.National, "professional", search.Options{
		Filters: []string{
			search.Filter("country", country),
			search.Filter("period", period),
		},
		HitsPerPage: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &Result{Record: records[0], Tier: TierGeneric, GenericFallback: true}, nil
}
