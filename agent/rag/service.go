// Package rag runs the retrieval pipeline: search, validate, summarize,
// compose, with every intermediate product attached to the result. Stages
// are strictly sequential and each consumes only the previous stage's
// output.
package rag

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/nvejas/citeline/agent/contract"
)

type Pipeline struct {
	searcher contractx.Searcher

	graphRunner compose.Runnable[string, contractx.RagResult]
}

func New(searcher contractx.Searcher) (*Pipeline, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}

	p := &Pipeline{searcher: searcher}

	graphRunner, err := p.compileRunGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.graphRunner = graphRunner

	return p, nil
}

// Run answers one question through the full pipeline. Any stage error
// aborts the run; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, question string) (contractx.RagResult, error) {
	return p.graphRunner.Invoke(ctx, question)
}
