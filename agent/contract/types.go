package contract

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ReplyKind tells the caller which path produced a reply.
type ReplyKind string

const (
	ReplyKindChat ReplyKind = "chat"
	ReplyKindRag  ReplyKind = "rag"
)

// Message is a single conversation turn.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// SearchResult is one retrieval hit as returned by a Searcher.
type SearchResult struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Snippet   string    `json:"snippet"`
	Score     float64   `json:"score"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Summary is the condensed form of one validated result.
type Summary struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// RouteScores carries the per-signal contributions behind a routing
// decision. It is returned on every path so callers can log and tune.
type RouteScores struct {
	QuestionWord float64 `json:"question_word"`
	Trigger      float64 `json:"trigger"`
	SourceWord   float64 `json:"source_word"`
	Specificity  float64 `json:"specificity"`
}

// Sum is the aggregate the routing threshold is compared against.
func (s RouteScores) Sum() float64 {
	return s.QuestionWord + s.Trigger + s.SourceWord + s.Specificity
}

// RouteDecision pairs the routing outcome with its diagnostics.
type RouteDecision struct {
	Routed bool        `json:"routed"`
	Scores RouteScores `json:"scores"`
}

// RagArtifacts exposes every intermediate pipeline product for
// transparency and debugging. Artifacts are attached after the answer is
// composed and never feed back into a stage.
type RagArtifacts struct {
	Results   []SearchResult `json:"results"`
	Validated []SearchResult `json:"validated"`
	Summaries []Summary      `json:"summaries"`
}

// RagResult is the output of a full pipeline run.
type RagResult struct {
	Answer    string       `json:"answer"`
	Citations []string     `json:"citations"`
	UsedCount int          `json:"used_count"`
	Artifacts RagArtifacts `json:"artifacts"`
}

// Reply is the assistant's response to one user message. Text holds the
// chat reply or the rag answer; Rag carries the full pipeline payload when
// Kind is ReplyKindRag.
type Reply struct {
	Kind     ReplyKind     `json:"kind"`
	Text     string        `json:"text"`
	Rag      *RagResult    `json:"rag,omitempty"`
	Decision RouteDecision `json:"decision"`
}
