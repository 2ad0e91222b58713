package dialognode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/nvejas/citeline/agent/contract"
	statex "github.com/nvejas/citeline/agent/state"
)

var ErrInvalidSession = errors.New("session id is empty")

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply contractx.Reply
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Conversation *statex.Conversation
	Decision     contractx.RouteDecision
	RagResult    *contractx.RagResult

	Message string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	// An empty message is still served: it takes the chat path with zero
	// routing scores.
	return &GraphState{
		SessionID: sessionID,
		Text:      in.Text,
		Now:       nowFn().UTC(),
	}, nil
}
