package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/callroom/rag/contract"
)

// maxRequestSizeBytes caps the prompt request body.
const maxRequestSizeBytes = 1 << 20

// Runner executes a pipeline request. *pipeline.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, q contractx.Query) (contractx.Answer, error)
}

// PromptRequest is the body of POST /api/prompt.
type PromptRequest struct {
	Query   string `json:"query"`
	Mode    string `json:"mode,omitempty"`    // "search" or "chat", default "chat"
	Engine  string `json:"engine,omitempty"`  // "direct" or "kernel", default "direct"
	Persona string `json:"persona,omitempty"` // "analyst" or "executive"
}

// PromptResponse is the body of a successful POST /api/prompt.
type PromptResponse struct {
	Answer   string              `json:"answer"`
	Mode     string              `json:"mode"`
	Engine   string              `json:"engine"`
	Persona  string              `json:"persona,omitempty"`
	Degraded bool                `json:"degraded"`
	Sources  []SourceDocument    `json:"sources,omitempty"`
	Context  *PromptContextStats `json:"context,omitempty"`
}

// SourceDocument is one retrieved document echoed back to the caller.
type SourceDocument struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id,omitempty"`
}

// PromptContextStats reports how the grounding context was assembled.
type PromptContextStats struct {
	Truncated   bool `json:"truncated"`
	SourceCount int  `json:"source_count"`
}

// PromptHandler handles POST /api/prompt.
type PromptHandler struct {
	runner Runner
}

// NewPromptHandler creates a prompt handler backed by runner.
func NewPromptHandler(runner Runner) *PromptHandler {
	return &PromptHandler{runner: runner}
}

// RegisterRoutes registers prompt routes on the given mux.
func (h *PromptHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/prompt", h.handlePrompt)
}

func (h *PromptHandler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestSizeBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	q := queryFromRequest(req)

	answer, err := h.runner.Run(r.Context(), q)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, responseFromAnswer(answer))
}

func (h *PromptHandler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, contractx.ErrPluginNotFound):
		writeError(w, http.StatusBadGateway, "plugin_not_found", err.Error())
	case errors.Is(err, contractx.ErrPluginExecution):
		writeError(w, http.StatusBadGateway, "plugin_execution_failed", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("pipeline run failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "pipeline run failed")
	}
}

// queryFromRequest maps the wire request onto a pipeline query, applying
// defaults for omitted fields. Unknown values pass through unchanged so the
// pipeline's own validation rejects them.
func queryFromRequest(req PromptRequest) contractx.Query {
	mode := req.Mode
	if mode == "" {
		mode = string(contractx.TaskChatWithSearch)
	}
	engine := req.Engine
	if engine == "" {
		engine = string(contractx.EngineDirect)
	}
	return contractx.Query{
		Text:    req.Query,
		Task:    contractx.Task(mode),
		Engine:  contractx.Engine(engine),
		Persona: contractx.Persona(req.Persona),
	}
}

func responseFromAnswer(a contractx.Answer) PromptResponse {
	resp := PromptResponse{
		Answer:   a.Text,
		Mode:     string(a.Task),
		Engine:   string(a.Engine),
		Persona:  string(a.Persona),
		Degraded: a.Degraded,
	}
	for _, s := range a.Sources {
		resp.Sources = append(resp.Sources, SourceDocument{
			Content:  s.Content,
			Score:    s.Score,
			SourceID: s.SourceID,
		})
	}
	if a.Context != nil {
		resp.Context = &PromptContextStats{
			Truncated:   a.Context.Truncated,
			SourceCount: a.Context.SourceCount,
		}
	}
	return resp
}
