package api

import (
	"net/http"

	pluginx "github.com/kittipos/callroom/rag/plugin"
)

// StatusInfo carries static deployment facts surfaced by /api/status.
type StatusInfo struct {
	SearcherKind   string `json:"searcher"`
	Model          string `json:"model"`
	DefaultPersona string `json:"default_persona"`
	ChatTopK       int    `json:"chat_top_k"`
	SearchTopK     int    `json:"search_top_k"`
	ContextLimit   int    `json:"context_limit"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	StatusInfo
	Plugins []PluginInfo `json:"plugins"`
}

// PluginInfo identifies one registered plugin.
type PluginInfo struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

// StatusHandler handles GET /api/status.
type StatusHandler struct {
	registry *pluginx.Registry
	info     StatusInfo
}

// NewStatusHandler creates a status handler. registry may be nil.
func NewStatusHandler(registry *pluginx.Registry, info StatusInfo) *StatusHandler {
	return &StatusHandler{registry: registry, info: info}
}

// RegisterRoutes registers status routes on the given mux.
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", h.handleStatus)
}

func (h *StatusHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		StatusInfo: h.info,
		Plugins:    []PluginInfo{},
	}
	if h.registry != nil {
		for _, key := range h.registry.List() {
			resp.Plugins = append(resp.Plugins, PluginInfo{Group: key.Group, Name: key.Name})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
