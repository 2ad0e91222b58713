package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// LabelClassifier asks a model for a routing label over the raw user
// message. It uses the SDK client directly rather than a compiled graph:
// the call is a single completion with no templating.
type LabelClassifier struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
}

var _ contractx.Classifier = (*LabelClassifier)(nil)

func NewLabelClassifier(client *openaisdk.Client, modelName, systemPrompt string) (*LabelClassifier, error) {
	if client == nil {
		return nil, errors.New("openrouter client is required")
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, errors.New("classifier model is required")
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return nil, errors.New("classifier prompt is required")
	}

	return &LabelClassifier{
		client:       client,
		model:        strings.TrimSpace(modelName),
		systemPrompt: systemPrompt,
	}, nil
}

// Classify returns "chat" or "rag" for the given message.
func (c *LabelClassifier) Classify(ctx context.Context, text string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(c.systemPrompt),
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("%w: classify completion: %v", contractx.ErrBackendUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: classify returned no choices", contractx.ErrMalformedResponse)
	}

	return parseLabel(completion.Choices[0].Message.Content)
}

func parseLabel(content string) (string, error) {
	var out struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return "", fmt.Errorf("%w: decode classify response: %v", contractx.ErrMalformedResponse, err)
	}

	label := strings.ToLower(strings.TrimSpace(out.Label))
	switch label {
	case string(contractx.ReplyKindChat), string(contractx.ReplyKindRag):
		return label, nil
	default:
		return "", fmt.Errorf("%w: unknown label %q", contractx.ErrMalformedResponse, out.Label)
	}
}
