package rag

import (
	"net/url"
	"strings"
	"unicode/utf8"

	contractx "github.com/nvejas/citeline/agent/contract"
)

const minSnippetRunes = 20

// validateResults filters the raw hits in order. A result is dropped when
// its snippet is shorter than minSnippetRunes, or when an earlier kept
// result already covers its domain. A result dropped for a short snippet
// does not claim its domain. Kept results pass through unmodified.
func validateResults(results []contractx.SearchResult) []contractx.SearchResult {
	seen := make(map[string]struct{}, len(results))
	kept := make([]contractx.SearchResult, 0, len(results))
	for _, r := range results {
		if utf8.RuneCountInString(r.Snippet) < minSnippetRunes {
			continue
		}
		domain := domainKey(r.URL)
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

// domainKey reduces a URL to its deduplication key: the host, lowercased,
// with one leading "www." stripped and any port kept. A scheme-less URL
// keys on everything before the first slash.
func domainKey(rawURL string) string {
	host := strings.TrimSpace(rawURL)
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host
	} else if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
