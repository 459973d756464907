package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/callroom/rag/contract"
	promptx "github.com/kittipos/callroom/rag/prompt"
)

// Well-known plugin keys the kernel pipeline resolves at run time.
const (
	GroupRAG      = "rag"
	GroupPersonas = "personas"

	NameSearchDocuments = "search_documents"

	// Search plugin input keys.
	InputQuery = "query"
	InputTop   = "top"
)

// SearchPayload is the JSON payload the search plugin emits. Degraded is set
// when the underlying searcher failed and the plugin substituted an empty
// result list; that is a retrieval degradation, not a plugin failure.
type SearchPayload struct {
	Documents []contractx.Snippet `json:"documents"`
	Degraded  bool                `json:"degraded"`
}

// RegisterSearch wires a Searcher into the registry under the well-known
// (rag, search_documents) key. defaultTop bounds result count when the caller
// passes no "top" input.
func RegisterSearch(reg *Registry, searcher contractx.Searcher, defaultTop int) {
	if defaultTop <= 0 {
		defaultTop = 5
	}

	reg.Register(GroupRAG, NameSearchDocuments, func(ctx context.Context, inputs map[string]string) (string, error) {
		query := strings.TrimSpace(inputs[InputQuery])
		if query == "" {
			return "", errors.New("input 'query' is required")
		}

		top := defaultTop
		if raw := strings.TrimSpace(inputs[InputTop]); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return "", fmt.Errorf("input 'top' must be a positive integer, got %q", raw)
			}
			top = n
		}

		payload := SearchPayload{Documents: []contractx.Snippet{}}
		snippets, err := searcher.Search(ctx, query, top)
		if err != nil {
			// Mirror the direct pipeline's posture: retrieval failure
			// degrades the payload instead of failing the plugin.
			log.Warn().Err(err).Str("plugin", Key{GroupRAG, NameSearchDocuments}.String()).
				Msg("search degraded to empty result set")
			payload.Degraded = true
		} else {
			payload.Documents = snippets
		}

		out, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal search payload: %w", err)
		}
		return string(out), nil
	})
}

// RegisterPersonas wires one plugin per known persona under the personas
// group, each returning that persona's system instruction.
func RegisterPersonas(reg *Registry, provider *promptx.Provider) {
	for _, persona := range []contractx.Persona{contractx.PersonaAnalyst, contractx.PersonaExecutive} {
		res := provider.Resolve(persona)
		instruction := res.SystemInstruction
		reg.Register(GroupPersonas, string(persona), func(ctx context.Context, _ map[string]string) (string, error) {
			return instruction, nil
		})
	}
}

// DecodeSearchPayload parses a search plugin result.
func DecodeSearchPayload(raw string) (SearchPayload, error) {
	var payload SearchPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return SearchPayload{}, fmt.Errorf("decode search payload: %w", err)
	}
	return payload, nil
}
