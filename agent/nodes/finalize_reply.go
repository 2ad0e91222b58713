package dialognode

import (
	"fmt"
	"strings"

	contractx "github.com/nvejas/citeline/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		return GraphOutput{}, fmt.Errorf("%w: reply text is empty", contractx.ErrValidation)
	}

	kind := contractx.ReplyKindChat
	if in.Decision.Routed {
		kind = contractx.ReplyKindRag
	}

	return GraphOutput{
		Reply: contractx.Reply{
			Kind:     kind,
			Text:     in.Message,
			Rag:      in.RagResult,
			Decision: in.Decision,
		},
	}, nil
}
