package rag

import (
	"strings"
	"unicode"

	contractx "github.com/nvejas/citeline/agent/contract"
)

const briefRuneLimit = 200

// summarizeResults condenses each validated result into a Summary, same
// order, source set to the result URL. Truncation stands in for model
// summarization at this layer.
func summarizeResults(validated []contractx.SearchResult) []contractx.Summary {
	if len(validated) == 0 {
		return nil
	}
	summaries := make([]contractx.Summary, 0, len(validated))
	for _, r := range validated {
		summaries = append(summaries, contractx.Summary{
			Source:  r.URL,
			Title:   r.Title,
			Summary: brief(r.Snippet),
		})
	}
	return summaries
}

// brief keeps the leading briefRuneLimit runes, strips trailing
// whitespace, and marks an actual truncation with "...".
func brief(snippet string) string {
	runes := []rune(snippet)
	if len(runes) <= briefRuneLimit {
		return strings.TrimRightFunc(snippet, unicode.IsSpace)
	}
	head := strings.TrimRightFunc(string(runes[:briefRuneLimit]), unicode.IsSpace)
	return head + "..."
}
