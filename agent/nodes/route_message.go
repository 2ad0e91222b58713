package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
	routerx "github.com/nvejas/citeline/agent/router"
)

func RouteMessage(ctx context.Context, in *GraphState, decider routerx.Decider) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	routed, scores := decider.Decide(ctx, in.Text)
	in.Decision = contractx.RouteDecision{Routed: routed, Scores: scores}
	return in, nil
}
