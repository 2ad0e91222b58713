package dialognode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/nvejas/citeline/agent/contract"
	statex "github.com/nvejas/citeline/agent/state"
)

func LoadConversation(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := loadOrCreateConversation(ctx, store, in.SessionID, in.Now)
	if err != nil {
		return nil, err
	}
	in.Conversation = conv
	return in, nil
}

func loadOrCreateConversation(
	ctx context.Context,
	store statex.Store,
	sessionID string,
	now time.Time,
) (*statex.Conversation, error) {
	conv, err := store.Load(ctx, sessionID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, statex.ErrConversationNotFound) {
		return nil, err
	}

	return statex.New(sessionID, now), nil
}
