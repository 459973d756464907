package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	contractx "github.com/kittipos/callroom/rag/contract"
	debugx "github.com/kittipos/callroom/rag/debug"
	pluginx "github.com/kittipos/callroom/rag/plugin"
)

// kernelStages mirrors the direct pipeline, but retrieval and persona
// selection go through the plugin registry by well-known keys. Completion is
// deliberately not plugin-routed. Plugin failures are fatal for the request:
// an unhealthy kernel pipeline must be visible, not masked as degradation.
func (s *Service) kernelStages() []stage {
	return []stage{
		{name: "resolve_persona_plugin", run: s.resolvePersonaPlugin},
		{name: "retrieve_plugin", run: s.retrievePlugin},
		{name: "assemble_context", run: s.assembleContext},
		{name: "compose_messages", run: s.composeMessages},
		{name: "complete", run: s.complete},
	}
}

func (s *Service) resolvePersonaPlugin(ctx context.Context, st *pipeState) (*pipeState, error) {
	if st.Query.Task != contractx.TaskChatWithSearch {
		return st, nil
	}
	start := time.Now()

	persona := st.Query.Persona
	defaulted := false
	switch persona {
	case contractx.PersonaAnalyst, contractx.PersonaExecutive:
	default:
		persona = s.personas.Default()
		defaulted = true
	}

	instruction, err := s.registry.Invoke(ctx, pluginx.GroupPersonas, string(persona), nil)
	if err != nil {
		s.report(ctx, "resolve_persona_plugin", "registry", start, debugx.OutcomeError)
		return nil, err
	}

	st.Persona = persona
	st.Instruction = instruction

	outcome := debugx.OutcomeOK
	if defaulted {
		outcome = "defaulted"
	}
	s.report(ctx, "resolve_persona_plugin", "registry", start, outcome)
	return st, nil
}

func (s *Service) retrievePlugin(ctx context.Context, st *pipeState) (*pipeState, error) {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	out, err := s.registry.Invoke(callCtx, pluginx.GroupRAG, pluginx.NameSearchDocuments, map[string]string{
		pluginx.InputQuery: st.Query.Text,
		pluginx.InputTop:   strconv.Itoa(s.topKFor(st.Query.Task)),
	})
	if err != nil {
		s.report(ctx, "retrieve_plugin", "registry", start, debugx.OutcomeError)
		return nil, err
	}

	payload, err := pluginx.DecodeSearchPayload(out)
	if err != nil {
		s.report(ctx, "retrieve_plugin", "registry", start, debugx.OutcomeError)
		return nil, fmt.Errorf("%w: %v", contractx.ErrPluginExecution, err)
	}

	st.Snippets = payload.Documents
	if payload.Degraded {
		// The plugin ran fine; the searcher behind it did not. Same
		// degradation path as the direct pipeline.
		st.Degraded = true
		s.report(ctx, "retrieve_plugin", "registry", start, debugx.OutcomeDegraded)
		return st, nil
	}

	s.report(ctx, "retrieve_plugin", "registry", start, debugx.OutcomeOK)
	return st, nil
}
