package rag

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// searchStage queries the backend. Zero hits flow on to validation;
// only an infrastructure failure aborts the run.
func searchStage(ctx context.Context, searcher contractx.Searcher, query string) ([]contractx.SearchResult, error) {
	results, err := searcher.Lookup(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search stage: %w", err)
	}
	return results, nil
}
