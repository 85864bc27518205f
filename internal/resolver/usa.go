package resolver

import (
	"context"
	"strings"

	"paybench-engine/internal/domain"
	"paybench-engine/internal/search"
)

// resolveUSA: exact-ID (regional preferred) -> regional fuzzy with word
// relaxation -> national fuzzy with the same relaxation -> generic. There is
// no US title dictionary.
func (r *Resolver) resolveUSA(ctx context.Context, q Query) (*Result, error) {
	const country = "USA"
	searchTitle := strings.ReplaceAll(q.Title, "-", " ")

	// Tier 1: exact ID lookup. Prefer the regional index when a usable
	// location was supplied; fall back to the national benchmark.
	if q.IDCode != "" {
		if len(q.Location) > 2 {
			records, err := benchmarkSearch(ctx, r.idx.Regional, "", search.Options{
				Filters: []string{
					search.Filter("id_code", q.IDCode),
					search.Filter("country", country),
					search.Filter("period", q.Period),
					search.Filter("searchLocation", strings.ToLower(q.Location)),
				},
				HitsPerPage: 1,
			})
			if err != nil {
				return nil, err
			}
			if len(records) > 0 {
				return &Result{Record: records[0], Tier: TierExact}, nil
			}
		}
		rec, err := r.nationalByCode(ctx, country, q.Period, q.IDCode)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return &Result{Record: *rec, Tier: TierExact}, nil
		}
	}

	// Tier 2: regional text search, dropping optional words when the full
	// query matches nothing.
	if len(q.Location) > 2 {
		records, err := benchmarkSearch(ctx, r.idx.Regional, searchTitle, search.Options{
			Filters: []string{
				search.Filter("country", country),
				search.Filter("period", q.Period),
				search.Filter("searchLocation", strings.ToLower(q.Location)),
			},
			HitsPerPage:            10,
			RemoveWordsIfNoResults: true,
		})
		if err != nil {
			return nil, err
		}
		if best := bestByLocation(records, q.Location); best != nil {
			return &Result{Record: *best, Tier: TierFuzzy}, nil
		}
	}

	// Tier 3: national text search with the same relaxation.
	records, err := benchmarkSearch(ctx, r.idx.National, searchTitle, search.Options{
		Filters: []string{
			search.Filter("country", country),
			search.Filter("period", q.Period),
		},
		HitsPerPage:            10,
		RemoveWordsIfNoResults: true,
	})
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return &Result{Record: records[0], Tier: TierDirect}, nil
	}

	// Tier 4: baseline professional average.
	return r.genericFallback(ctx, country, q.Period)
}

func bestByLocation(records []domain.BenchmarkRecord, location string) *domain.BenchmarkRecord {
	locLower := strings.ToLower(location)
	for i := range records {
		recLoc := strings.ToLower(records[i].Location)
		if strings.Contains(recLoc, locLower) || strings.Contains(locLower, recLoc) {
			return &records[i]
		}
	}
	return nil
}
