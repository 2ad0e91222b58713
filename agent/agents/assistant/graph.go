package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/nvejas/citeline/agent/contract"
	nodex "github.com/nvejas/citeline/agent/nodes"
)

func (a *Assistant) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadConversation(ctx, in, a.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("append_user_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AppendUserTurn(ctx, in, a.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_user_turn: %w", err)
	}

	if err := graph.AddLambdaNode("route_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RouteMessage(ctx, in, a.decider)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route_message: %w", err)
	}

	if err := graph.AddLambdaNode("run_pipeline",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunPipeline(ctx, in, a.pipeline)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_pipeline: %w", err)
	}

	if err := graph.AddLambdaNode("chat_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ChatReply(ctx, in, a.generator, a.contextTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node chat_reply: %w", err)
	}

	if err := graph.AddLambdaNode("record_assistant_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordAssistantTurn(ctx, in, a.store, a.maxTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_assistant_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: dialog graph state is nil", contractx.ErrValidation)
			}
			if in.Decision.Routed {
				return "run_pipeline", nil
			}
			return "chat_reply", nil
		},
		map[string]bool{
			"run_pipeline": true,
			"chat_reply":   true,
		},
	)

	if err := graph.AddBranch("route_message", branch); err != nil {
		return nil, fmt.Errorf("add routing branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_conversation"},
		{"load_conversation", "append_user_turn"},
		{"append_user_turn", "route_message"},
		{"run_pipeline", "record_assistant_turn"},
		{"chat_reply", "record_assistant_turn"},
		{"record_assistant_turn", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}
