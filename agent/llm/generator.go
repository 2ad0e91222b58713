// Package llm provides the model-backed capabilities: a chat generator
// for the conversational path and a label classifier that can replace the
// lexical routing heuristic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// ChatGenerator answers over the trailing conversation window through a
// prompt-template/chat-model graph compiled at construction.
type ChatGenerator struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Generator = (*ChatGenerator)(nil)

func NewChatGenerator(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (*ChatGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return nil, errors.New("system prompt is required")
	}

	runner, err := compileChatGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &ChatGenerator{runner: runner}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, history []contractx.Message) (string, error) {
	out, err := g.runner.Invoke(ctx, map[string]any{
		"input": renderTranscript(history),
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat invoke: %v", contractx.ErrBackendUnavailable, err)
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: chat reply is empty", contractx.ErrMalformedResponse)
	}
	return reply, nil
}

// renderTranscript flattens a history window into role-prefixed lines,
// oldest first.
func renderTranscript(history []contractx.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	return strings.Join(lines, "\n")
}
