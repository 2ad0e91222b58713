package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// RagRunner is the retrieval pipeline seam the dialog graph invokes for
// routed messages.
type RagRunner interface {
	Run(ctx context.Context, question string) (contractx.RagResult, error)
}

func RunPipeline(ctx context.Context, in *GraphState, pipeline RagRunner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	result, err := pipeline.Run(ctx, in.Text)
	if err != nil {
		return nil, err
	}

	in.RagResult = &result
	in.Message = result.Answer
	return in, nil
}
