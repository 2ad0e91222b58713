package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
	statex "github.com/nvejas/citeline/agent/state"
)

func AppendUserTurn(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	in.Conversation.Append(contractx.RoleUser, in.Text, in.Now)

	// Saved before any backend call so the user turn survives a
	// downstream failure.
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, err
	}
	return in, nil
}
