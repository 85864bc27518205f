package cachekey

import (
	"fmt"
	"regexp"
	"strings"
)

// Runs of anything outside [a-z0-9+#.] collapse to a single dash.
// +, # and . survive so "C++", "C#" and ".NET" stay distinguishable.
var keyStrip = regexp.MustCompile(`[^a-z0-9+#.]+`)

// DeriveKey builds the deterministic cache key for a query. Distinct but
// similar queries may collide; that is an accepted approximation.
func DeriveKey(title, location, country string) string {
	t := keyStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	l := keyStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(location)), "-")
	c := strings.ToLower(strings.TrimSpace(country))
	return fmt.Sprintf("%s-%s-%s", c, l, t)
}

// WithLimit appends the caller's result limit. All cache families include the
// limit in their key so differing limits never share an entry.
func WithLimit(key string, limit int) string {
	return fmt.Sprintf("%s-%d", key, limit)
}
