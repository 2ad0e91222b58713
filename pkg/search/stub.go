package search

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
)

const defaultStubResults = 8

// Stub is a Searcher with canned behavior. With neither Results nor Err
// set it fabricates deterministic fixtures per query: one result per
// distinct host, rank scores 1/(i+1), snippets long enough to survive
// validation.
type Stub struct {
	// Results, when set, is returned to every Lookup.
	Results []contractx.SearchResult
	// Err, when set, is returned to every Lookup.
	Err error

	n int
}

var _ contractx.Searcher = (*Stub)(nil)

// NewStub returns a Stub fabricating n fixtures per query.
func NewStub(n int) *Stub {
	if n <= 0 {
		n = defaultStubResults
	}
	return &Stub{n: n}
}

func (s *Stub) Lookup(_ context.Context, query string) ([]contractx.SearchResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Results != nil {
		out := make([]contractx.SearchResult, len(s.Results))
		copy(out, s.Results)
		return out, nil
	}

	n := s.n
	if n <= 0 {
		n = defaultStubResults
	}
	results := make([]contractx.SearchResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, contractx.SearchResult{
			Title:   fmt.Sprintf("Result %d for: %s", i, query),
			URL:     fmt.Sprintf("https://source-%d.example.com/result-%d", i, i),
			Snippet: fmt.Sprintf("Snippet %d summarizing content relevant to '%s'...", i, query),
			Score:   1.0 / float64(i+1),
		})
	}
	return results, nil
}
