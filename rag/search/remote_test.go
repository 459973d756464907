package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/kittipos/callroom/rag/contract"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*RemoteClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewRemoteClient(RemoteConfig{
		Endpoint:   srv.URL,
		APIKey:     "test-key",
		Index:      "earnings-q3",
		APIVersion: "2023-11-01",
		Timeout:    2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewRemoteClient() error = %v", err)
	}
	return client, srv
}

func TestRemoteSearchSuccess(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"@search.score": 2.4, "id": "doc-1", "content": "revenue grew 12%"},
				{"@search.score": 1.1, "chunk_id": "doc-2-c3", "text": "margins held steady"},
				{"@search.score": 0.9, "id": "doc-3", "content": "   "},
			},
		})
	})

	snippets, err := client.Search(context.Background(), "q3 revenue", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/indexes/earnings-q3/docs/search" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api-key header: %q", gotKey)
	}
	if gotBody["search"] != "q3 revenue" || gotBody["top"] != float64(5) {
		t.Fatalf("unexpected request body: %v", gotBody)
	}

	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets (blank content dropped), got %d", len(snippets))
	}
	if snippets[0].SourceID != "doc-1" || snippets[0].Score != 2.4 {
		t.Fatalf("unexpected first snippet: %+v", snippets[0])
	}
	// Content falls back to the "text" field, source id to "chunk_id".
	if snippets[1].Content != "margins held steady" || snippets[1].SourceID != "doc-2-c3" {
		t.Fatalf("unexpected second snippet: %+v", snippets[1])
	}
}

func TestRemoteSearchServiceError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.Search(context.Background(), "anything", 3)
	if !errors.Is(err, contractx.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestRemoteSearchMalformedResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := client.Search(context.Background(), "anything", 3)
	if !errors.Is(err, contractx.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestRemoteSearchTimeout(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"value":[]}`))
	})
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.Search(context.Background(), "anything", 3)
	if !errors.Is(err, contractx.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval on timeout, got %v", err)
	}
}

func TestRemoteSearchInputValidation(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	})

	if _, err := client.Search(context.Background(), "   ", 3); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty query, got %v", err)
	}
	if _, err := client.Search(context.Background(), "x", 0); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for non-positive topK, got %v", err)
	}
}

func TestNewRemoteClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRemoteClient(RemoteConfig{Index: "idx"}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if _, err := NewRemoteClient(RemoteConfig{Endpoint: "http://localhost:9200"}); err == nil {
		t.Fatal("expected error for missing index")
	}
	if _, err := NewRemoteClient(RemoteConfig{Endpoint: "://bad", Index: "idx"}); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
