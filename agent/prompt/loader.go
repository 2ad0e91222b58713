package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/chat_system.txt
	chatRaw string

	//go:embed template/classifier_system.txt
	classifierRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Chat       string
	Classifier string
}

// LoadPromptSet returns the embedded prompt templates with surrounding
// whitespace trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Chat:       strings.TrimSpace(chatRaw),
		Classifier: strings.TrimSpace(classifierRaw),
	}
}
