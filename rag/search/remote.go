// Package search provides the document retrieval implementations behind the
// Searcher contract: a remote search-service client and a local pre-built
// index. Neither ingests or indexes documents.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/kittipos/callroom/rag/contract"
)

const maxResponseSizeBytes = 2 << 20

// RemoteConfig holds the external document-search service settings.
type RemoteConfig struct {
	Endpoint   string        `envconfig:"ENDPOINT" split_words:"true"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	Index      string        `envconfig:"INDEX" split_words:"true"`
	APIVersion string        `envconfig:"API_VERSION" split_words:"true" default:"2023-11-01"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// RemoteClient queries a cognitive-search style REST service. One outbound
// call per Search, no other side effects.
type RemoteClient struct {
	endpoint   string
	apiKey     string
	index      string
	apiVersion string
	httpClient *http.Client
}

var _ contractx.Searcher = (*RemoteClient)(nil)

// NewRemoteClient validates cfg and builds a client.
func NewRemoteClient(cfg RemoteConfig) (*RemoteClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("search endpoint is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	if strings.TrimSpace(cfg.Index) == "" {
		return nil, errors.New("search index name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		index:      strings.TrimSpace(cfg.Index),
		apiVersion: strings.TrimSpace(cfg.APIVersion),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type remoteSearchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
	Count  bool   `json:"count"`
}

type remoteSearchResponse struct {
	Value []remoteDoc `json:"value"`
}

type remoteDoc struct {
	Score   float64 `json:"@search.score"`
	ID      string  `json:"id"`
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Text    string  `json:"text"`
}

// Search returns the full ranked result list for text, or an error wrapping
// ErrRetrieval. Partial results are never returned silently.
func (c *RemoteClient) Search(ctx context.Context, text string, topK int) ([]contractx.Snippet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", contractx.ErrValidation)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", contractx.ErrValidation)
	}

	body, err := json.Marshal(remoteSearchRequest{Search: text, Top: topK, Count: true})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal search request: %v", contractx.ErrRetrieval, err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		c.endpoint, url.PathEscape(c.index), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build search request: %v", contractx.ErrRetrieval, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read search response: %v", contractx.ErrRetrieval, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: search service returned status %d", contractx.ErrRetrieval, resp.StatusCode)
	}

	var parsed remoteSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed search response: %v", contractx.ErrRetrieval, err)
	}

	snippets := make([]contractx.Snippet, 0, len(parsed.Value))
	for _, doc := range parsed.Value {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			content = strings.TrimSpace(doc.Text)
		}
		if content == "" {
			continue
		}
		sourceID := doc.ID
		if sourceID == "" {
			sourceID = doc.ChunkID
		}
		snippets = append(snippets, contractx.Snippet{
			Content:  content,
			Score:    doc.Score,
			SourceID: sourceID,
		})
	}

	// Result order is the service's relevance ranking; keep it as-is.
	return snippets, nil
}
