package rag

import (
	"fmt"
	"strings"

	contractx "github.com/nvejas/citeline/agent/contract"
)

const (
	noSourcesAnswer = "I couldn't find reliable sources for that."

	// quoteLimit caps how many summaries the answer body quotes; every
	// summary is still cited and counted.
	quoteLimit = 2
)

// composeAnswer builds the final answer text from the summaries. Zero
// summaries is a valid outcome and yields the no-sources answer.
func composeAnswer(question string, summaries []contractx.Summary) (answer string, citations []string, usedCount int) {
	if len(summaries) == 0 {
		return noSourcesAnswer, []string{}, 0
	}

	quoted := summaries
	if len(quoted) > quoteLimit {
		quoted = quoted[:quoteLimit]
	}

	parts := make([]string, 0, len(quoted))
	for _, s := range quoted {
		parts = append(parts, fmt.Sprintf("From %s: %s", s.Title, s.Summary))
	}
	body := strings.Join(parts, "\n\n")
	answer = fmt.Sprintf("Short answer to: %s\n\n%s\n\n(See sources below.)", question, body)

	citations = make([]string, 0, len(summaries))
	for _, s := range summaries {
		citations = append(citations, s.Source)
	}
	return answer, citations, len(summaries)
}
