// Package search defines the query/filter contract the resolver consumes and
// the clients that satisfy it.
package search

import (
	"context"
	"encoding/json"
	"strings"
)

// Options narrows a search. Filters are conjunctive "field:value" terms;
// values may be double-quoted when they contain spaces.
type Options struct {
	Filters     []string
	HitsPerPage int
	// RemoveWordsIfNoResults relaxes the query by dropping optional words
	// when the full query matches nothing.
	RemoveWordsIfNoResults bool
}

// Index is a single named search index.
type Index interface {
	Search(ctx context.Context, text string, opts Options) ([]json.RawMessage, error)
}

// DecodeHits unmarshals raw hits into typed records, skipping malformed ones.
func DecodeHits[T any](hits []json.RawMessage) []T {
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		var v T
		if err := json.Unmarshal(h, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Filter formats one conjunctive filter term. Values containing spaces are
// quoted.
func Filter(field, value string) string {
	if strings.ContainsAny(value, " \t") {
		return field + `:"` + value + `"`
	}
	return field + ":" + value
}

// splitFilter breaks "field:value" on the first colon and unquotes the value.
func splitFilter(term string) (field, value string, ok bool) {
	i := strings.IndexByte(term, ':')
	if i <= 0 {
		return "", "", false
	}
	field = term[:i]
	value = strings.Trim(term[i+1:], `"`)
	return field, value, true
}
