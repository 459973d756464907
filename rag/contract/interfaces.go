package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Searcher retrieves up to topK relevance-ranked snippets for a query.
// Implementations return either the full ranked list or an error wrapping
// ErrRetrieval; partial results are never returned silently.
type Searcher interface {
	Search(ctx context.Context, text string, topK int) ([]Snippet, error)
}

// Completer generates text from an ordered message list. Callers compose
// messages with at least one system message and a trailing user message.
type Completer interface {
	Complete(ctx context.Context, msgs []*schema.Message) (string, error)
}
