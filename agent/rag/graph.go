package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// pipelineState is threaded through the stage nodes. Compose reads only
// the question and the summaries; the raw and validated hits ride along
// solely so attach_artifacts can expose them.
type pipelineState struct {
	Question  string
	Results   []contractx.SearchResult
	Validated []contractx.SearchResult
	Summaries []contractx.Summary
	Result    contractx.RagResult
}

func (p *Pipeline) compileRunGraph(ctx context.Context) (compose.Runnable[string, contractx.RagResult], error) {
	graph := compose.NewGraph[string, contractx.RagResult]()

	if err := graph.AddLambdaNode("search",
		compose.InvokableLambda(func(ctx context.Context, question string) (*pipelineState, error) {
			results, err := searchStage(ctx, p.searcher, question)
			if err != nil {
				return nil, err
			}
			return &pipelineState{Question: question, Results: results}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node search: %w", err)
	}

	if err := graph.AddLambdaNode("validate",
		compose.InvokableLambda(func(ctx context.Context, in *pipelineState) (*pipelineState, error) {
			in.Validated = validateResults(in.Results)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate: %w", err)
	}

	if err := graph.AddLambdaNode("summarize",
		compose.InvokableLambda(func(ctx context.Context, in *pipelineState) (*pipelineState, error) {
			in.Summaries = summarizeResults(in.Validated)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize: %w", err)
	}

	if err := graph.AddLambdaNode("compose",
		compose.InvokableLambda(func(ctx context.Context, in *pipelineState) (*pipelineState, error) {
			answer, citations, usedCount := composeAnswer(in.Question, in.Summaries)
			in.Result = contractx.RagResult{
				Answer:    answer,
				Citations: citations,
				UsedCount: usedCount,
			}
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose: %w", err)
	}

	if err := graph.AddLambdaNode("attach_artifacts",
		compose.InvokableLambda(func(ctx context.Context, in *pipelineState) (contractx.RagResult, error) {
			out := in.Result
			out.Artifacts = contractx.RagArtifacts{
				Results:   in.Results,
				Validated: in.Validated,
				Summaries: in.Summaries,
			}
			return out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node attach_artifacts: %w", err)
	}

	edges := [][2]string{
		{compose.START, "search"},
		{"search", "validate"},
		{"validate", "summarize"},
		{"summarize", "compose"},
		{"compose", "attach_artifacts"},
		{"attach_artifacts", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("rag.run_pipeline"))
	if err != nil {
		return nil, fmt.Errorf("compile rag graph: %w", err)
	}
	return runner, nil
}
