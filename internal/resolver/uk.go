package resolver

import (
	"context"
	"strings"

	"paybench-engine/internal/domain"
	"paybench-engine/internal/errs"
	"paybench-engine/internal/search"
)

// resolveUK: exact-ID -> title-dictionary fuzzy -> direct title -> generic.
// The title dictionary maps free text to a SOC code, which is then resolved
// against the national benchmarks index.
func (r *Resolver) resolveUK(ctx context.Context, q Query) (*Result, error) {
	const country = "UK"
	searchTitle, targetGroup := splitGroup(q.Title)

	// Tier 1: exact ID lookup, bypassing fuzzy search entirely.
	if q.IDCode != "" {
		rec, err := r.nationalByCode(ctx, country, q.Period, q.IDCode)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return &Result{
				Record:   *rec,
				Regional: r.regionalOverlay(ctx, country, q.Period, q.Location),
				Tier:     TierExact,
			}, nil
		}
	}

	// Tier 2: fuzzy lookup through the title dictionary.
	var titles []domain.JobTitleEntry
	if r.idx.Titles != nil {
		hits, err := r.idx.Titles.Search(ctx, sanitizeTitle(searchTitle), search.Options{
			Filters:     []string{search.Filter("country", country)},
			HitsPerPage: 10,
		})
		if err != nil {
			return nil, errs.Upstream(err, "title dictionary search")
		}
		titles = search.DecodeHits[domain.JobTitleEntry](hits)
	}

	var candidate *domain.JobTitleEntry
	var ambiguous []domain.JobTitleEntry

	if targetGroup != "" {
		for i := range titles {
			if strings.EqualFold(titles[i].Group, targetGroup) {
				candidate = &titles[i]
				break
			}
		}
	}
	if candidate == nil && len(titles) > 0 {
		// With no explicit disambiguator, hits spanning several distinct
		// groups flag the query as ambiguous. The top-ranked hit still
		// serves as the working candidate.
		if targetGroup == "" && distinctGroups(titles) > 1 {
			ambiguous = titles
		}
		candidate = &titles[0]
	}

	if candidate != nil && candidate.IDCode != "" {
		rec, err := r.nationalByCode(ctx, country, q.Period, candidate.IDCode)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return &Result{
				Record:    *rec,
				Regional:  r.regionalOverlay(ctx, country, q.Period, q.Location),
				Ambiguous: ambiguous,
				Tier:      TierFuzzy,
			}, nil
		}
	}

	// Tier 3: search the benchmarks index directly with the title text.
	records, err := benchmarkSearch(ctx, r.idx.National, searchTitle, search.Options{
		Filters: []string{
			search.Filter("country", country),
			search.Filter("period", q.Period),
		},
		HitsPerPage: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return &Result{Record: records[0], Ambiguous: ambiguous, Tier: TierDirect}, nil
	}

	// Tier 4: baseline professional average.
	res, err := r.genericFallback(ctx, country, q.Period)
	if err != nil {
		return nil, err
	}
	if res != nil {
		res.Ambiguous = ambiguous
	}
	return res, nil
}

func (r *Resolver) nationalByCode(ctx context.Context, country, period, idCode string) (*domain.BenchmarkRecord, error) {
	records, err := benchmarkSearch(ctx, r.idx.National, "", search.Options{
		Filters: []string{
			search.Filter("id_code", idCode),
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
	return &records[0], nil
}

func distinctGroups(titles []domain.JobTitleEntry) int {
	groups := map[string]struct{}{}
	for _, t := range titles {
		g := strings.ToLower(strings.TrimSpace(t.Group))
		if g == "" {
			continue
		}
		groups[g] = struct{}{}
	}
	return len(groups)
}
