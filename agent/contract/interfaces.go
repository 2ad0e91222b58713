package contract

import "context"

// Searcher is the retrieval capability behind the pipeline's search stage.
// An empty result slice is a valid outcome, not an error; implementations
// return an error only when the backend itself fails.
type Searcher interface {
	Lookup(ctx context.Context, query string) ([]SearchResult, error)
}

// Generator produces a conversational reply from the trailing history
// window. The window already contains the current user turn.
type Generator interface {
	Generate(ctx context.Context, history []Message) (string, error)
}

// Classifier labels a message as "chat" or "rag". Optional upgrade path
// for the lexical router.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}
