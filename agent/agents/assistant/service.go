package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/nvejas/citeline/agent/contract"
	nodex "github.com/nvejas/citeline/agent/nodes"
	routerx "github.com/nvejas/citeline/agent/router"
	statex "github.com/nvejas/citeline/agent/state"
)

var ErrInvalidSession = nodex.ErrInvalidSession

// RagRunner re-exports the pipeline seam so callers wire the assistant
// without importing the node package.
type RagRunner = nodex.RagRunner

type Config struct {
	// ContextTurns is the size of the trailing history window handed to
	// the chat generator.
	ContextTurns int `envconfig:"CONTEXT_TURNS" split_words:"true" default:"6"`
	// MaxTurns caps how many turns a conversation retains. Zero keeps
	// everything.
	MaxTurns int `envconfig:"MAX_TURNS" split_words:"true" default:"0"`
}

type Assistant struct {
	store     statex.Store
	decider   routerx.Decider
	pipeline  RagRunner
	generator contractx.Generator

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	contextTurns int
	maxTurns     int

	now func() time.Time
}

func New(
	store statex.Store,
	decider routerx.Decider,
	pipeline RagRunner,
	generator contractx.Generator,
	cfg Config,
) (*Assistant, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if decider == nil {
		return nil, errors.New("route decider is required")
	}
	if pipeline == nil {
		return nil, errors.New("rag pipeline is required")
	}
	if generator == nil {
		return nil, errors.New("chat generator is required")
	}

	contextTurns := cfg.ContextTurns
	if contextTurns <= 0 {
		contextTurns = 6
	}
	maxTurns := cfg.MaxTurns
	if maxTurns < 0 {
		maxTurns = 0
	}

	a := &Assistant{
		store:        store,
		decider:      decider,
		pipeline:     pipeline,
		generator:    generator,
		contextTurns: contextTurns,
		maxTurns:     maxTurns,
		now:          time.Now,
	}

	graphRunner, err := a.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

func (a *Assistant) Reply(ctx context.Context, sessionID string, text string) (contractx.Reply, error) {
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return contractx.Reply{}, err
	}
	return out.Reply, nil
}

// History returns every retained turn for a session, oldest first. An
// unknown session yields an empty history, not an error.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]contractx.Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	conv, err := a.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrConversationNotFound) {
		return []contractx.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return conv.Tail(conv.Len()), nil
}
