package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is an in-process Index over a fixed document set. It backs tests
// and offline mode; ranking is a simple matched-token count, which is close
// enough to the hosted engine's behavior for the resolver's purposes.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs []map[string]any
}

func NewMemoryIndex(docs ...map[string]any) *MemoryIndex {
	return &MemoryIndex{docs: docs}
}

func (m *MemoryIndex) Add(docs ...map[string]any) {
	m.mu.Lock()
	m.docs = append(m.docs, docs...)
	m.mu.Unlock()
}

func (m *MemoryIndex) Search(_ context.Context, text string, opts Options) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(text))

	type scored struct {
		doc   map[string]any
		score int
	}
	var matched []scored
	for _, doc := range m.docs {
		if !matchesFilters(doc, opts.Filters) {
			continue
		}
		score := tokenScore(doc, tokens)
		if len(tokens) > 0 && score == 0 {
			continue
		}
		matched = append(matched, scored{doc: doc, score: score})
	}

	// Full-match only unless relaxation was requested.
	if len(tokens) > 0 && !opts.RemoveWordsIfNoResults {
		full := matched[:0]
		for _, s := range matched {
			if s.score == len(tokens) {
				full = append(full, s)
			}
		}
		matched = full
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })

	limit := opts.HitsPerPage
	if limit <= 0 || limit > len(matched) {
		limit = len(matched)
	}

	hits := make([]json.RawMessage, 0, limit)
	for _, s := range matched[:limit] {
		b, err := json.Marshal(s.doc)
		if err != nil {
			return nil, err
		}
		hits = append(hits, b)
	}
	return hits, nil
}

func matchesFilters(doc map[string]any, filters []string) bool {
	for _, term := range filters {
		field, want, ok := splitFilter(term)
		if !ok {
			continue
		}
		got, ok := doc[field]
		if !ok {
			return false
		}
		if !strings.EqualFold(fmt.Sprint(got), want) {
			return false
		}
	}
	return true
}

func tokenScore(doc map[string]any, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	var blob strings.Builder
	for _, v := range doc {
		if s, ok := v.(string); ok {
			blob.WriteString(strings.ToLower(s))
			blob.WriteByte(' ')
		}
	}
	text := blob.String()
	score := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			score++
		}
	}
	return score
}
