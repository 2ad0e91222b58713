package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
	statex "github.com/nvejas/citeline/agent/state"
)

func RecordAssistantTurn(ctx context.Context, in *GraphState, store statex.Store, maxTurns int) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	in.Conversation.Append(contractx.RoleAssistant, in.Message, in.Now)
	in.Conversation.Truncate(maxTurns)
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, err
	}
	return in, nil
}
