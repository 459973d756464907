package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"

	contractx "github.com/kittipos/callroom/rag/contract"
)

// LocalConfig points at a pre-built bleve index on disk. The service never
// writes to it; building the index is an offline concern.
type LocalConfig struct {
	Path  string `envconfig:"LOCAL_INDEX_PATH" split_words:"true"`
	Field string `envconfig:"LOCAL_INDEX_FIELD" split_words:"true" default:"content"`
}

// LocalIndex serves Search from a bleve index directory. It is the
// in-process alternative to the remote search service, useful for local
// development and air-gapped corpora.
type LocalIndex struct {
	index bleve.Index
	field string
}

var _ contractx.Searcher = (*LocalIndex)(nil)

// OpenLocalIndex opens the index read-only for queries. A missing or
// unreadable index is a startup error, not a per-request one.
func OpenLocalIndex(cfg LocalConfig) (*LocalIndex, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("local index path is required")
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open local index: %w", err)
	}

	field := strings.TrimSpace(cfg.Field)
	if field == "" {
		field = "content"
	}

	return &LocalIndex{index: idx, field: field}, nil
}

// Search runs a match query over the content field and returns bleve's
// relevance-ranked hits.
func (l *LocalIndex) Search(ctx context.Context, text string, topK int) ([]contractx.Snippet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", contractx.ErrValidation)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", contractx.ErrValidation)
	}

	query := bleve.NewMatchQuery(text)
	query.SetField(l.field)

	req := bleve.NewSearchRequest(query)
	req.Size = topK
	req.Fields = []string{l.field}

	res, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: local index search: %v", contractx.ErrRetrieval, err)
	}

	snippets := make([]contractx.Snippet, 0, len(res.Hits))
	for _, hit := range res.Hits {
		content, _ := hit.Fields[l.field].(string)
		if strings.TrimSpace(content) == "" {
			continue
		}
		snippets = append(snippets, contractx.Snippet{
			Content:  content,
			Score:    hit.Score,
			SourceID: hit.ID,
		})
	}
	return snippets, nil
}

// Close releases the underlying index.
func (l *LocalIndex) Close() error {
	return l.index.Close()
}
