package search

import (
	"strings"

	"github.com/viralops/viralfinder/internal/provider"
)

// Deduplicate drops results that repeat a page URL, keeping the first
// occurrence, and filters out anything the validator rejects. URLs are
// compared after trimming surrounding whitespace; results with an empty
// page URL are always dropped.
func Deduplicate(results []provider.SearchResult, valid func(string) bool) []provider.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]provider.SearchResult, 0, len(results))

	for _, r := range results {
		u := strings.TrimSpace(r.PageURL)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		if valid != nil && !valid(u) {
			continue
		}
		seen[u] = struct{}{}
		r.PageURL = u
		out = append(out, r)
	}
	return out
}
