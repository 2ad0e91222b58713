package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
)

func ChatReply(ctx context.Context, in *GraphState, generator contractx.Generator, contextTurns int) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	reply, err := generator.Generate(ctx, in.Conversation.Tail(contextTurns))
	if err != nil {
		return nil, err
	}

	in.Message = reply
	return in, nil
}
