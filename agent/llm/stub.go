package llm

import (
	"context"
	"fmt"

	contractx "github.com/nvejas/citeline/agent/contract"
)

// StubGenerator is an offline stand-in for the chat model. It echoes the
// latest user message together with the window it was handed, which makes
// the context plumbing visible in demos and tests.
type StubGenerator struct{}

var _ contractx.Generator = StubGenerator{}

func (StubGenerator) Generate(_ context.Context, history []contractx.Message) (string, error) {
	var message string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == contractx.RoleUser {
			message = history[i].Text
			break
		}
	}

	transcript := renderTranscript(history)
	return fmt.Sprintf("(chat) I heard: '%s' -- context:\n%s", clip(message, 200), clip(transcript, 400)), nil
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
