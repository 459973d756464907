package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/kittipos/callroom/rag/assemble"
	contractx "github.com/kittipos/callroom/rag/contract"
	debugx "github.com/kittipos/callroom/rag/debug"
)

// pipeState flows through one pipeline run. Stages mutate it in order; it is
// request-scoped and never shared across runs.
type pipeState struct {
	Query            contractx.Query
	Persona          contractx.Persona
	Instruction      string
	Snippets         []contractx.Snippet
	Context          contractx.AssembledContext
	Messages         []*schema.Message
	Text             string
	Degraded         bool
}

// stage is one named pipeline step.
type stage struct {
	name string
	run  func(ctx context.Context, st *pipeState) (*pipeState, error)
}

// compileGraph chains init → stages → finalize into a runnable graph.
func (s *Service) compileGraph(
	ctx context.Context,
	name string,
	stages []stage,
) (compose.Runnable[contractx.Query, contractx.Answer], error) {
	graph := compose.NewGraph[contractx.Query, contractx.Answer]()

	if err := graph.AddLambdaNode("init",
		compose.InvokableLambda(func(ctx context.Context, q contractx.Query) (*pipeState, error) {
			return &pipeState{Query: q}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node init: %w", err)
	}

	prev := "init"
	if err := graph.AddEdge(compose.START, prev); err != nil {
		return nil, fmt.Errorf("add edge start->init: %w", err)
	}

	for _, st := range stages {
		if err := graph.AddLambdaNode(st.name, compose.InvokableLambda(st.run)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", st.name, err)
		}
		if err := graph.AddEdge(prev, st.name); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", prev, st.name, err)
		}
		prev = st.name
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(s.finalizeAnswer),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}
	if err := graph.AddEdge(prev, "finalize"); err != nil {
		return nil, fmt.Errorf("add edge %s->finalize: %w", prev, err)
	}
	if err := graph.AddEdge("finalize", compose.END); err != nil {
		return nil, fmt.Errorf("add edge finalize->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(name))
	if err != nil {
		return nil, fmt.Errorf("compile %s graph: %w", name, err)
	}
	return runner, nil
}

// directStages is the hand-wired pipeline: every collaborator is called
// directly, in fixed order, with no registry indirection.
func (s *Service) directStages() []stage {
	return []stage{
		{name: "resolve_persona", run: s.resolvePersona},
		{name: "retrieve", run: s.retrieve},
		{name: "assemble_context", run: s.assembleContext},
		{name: "compose_messages", run: s.composeMessages},
		{name: "complete", run: s.complete},
	}
}

func (s *Service) report(ctx context.Context, stageName, component string, start time.Time, outcome string) {
	s.recorder.Record(ctx, debugx.Event{
		Stage:     stageName,
		Component: component,
		Duration:  time.Since(start),
		Outcome:   outcome,
		At:        start.UTC(),
	})
}

func (s *Service) resolvePersona(ctx context.Context, st *pipeState) (*pipeState, error) {
	if st.Query.Task != contractx.TaskChatWithSearch {
		return st, nil
	}
	start := time.Now()

	res := s.personas.Resolve(st.Query.Persona)
	st.Persona = res.Persona
	st.Instruction = res.SystemInstruction

	outcome := debugx.OutcomeOK
	if res.Defaulted {
		outcome = "defaulted"
	}
	s.report(ctx, "resolve_persona", "personas", start, outcome)
	return st, nil
}

func (s *Service) retrieve(ctx context.Context, st *pipeState) (*pipeState, error) {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	snippets, err := s.searcher.Search(callCtx, st.Query.Text, s.topKFor(st.Query.Task))
	if err != nil {
		// Retrieval failure never aborts the request; proceed with an
		// empty context and flag the answer.
		log.Warn().Err(err).Msg("retrieval degraded to empty context")
		st.Degraded = true
		s.report(ctx, "retrieve", "search", start, debugx.OutcomeDegraded)
		return st, nil
	}

	st.Snippets = snippets
	s.report(ctx, "retrieve", "search", start, debugx.OutcomeOK)
	return st, nil
}

func (s *Service) topKFor(task contractx.Task) int {
	if task == contractx.TaskChatWithSearch {
		return s.cfg.ChatTopK
	}
	return s.cfg.SearchTopK
}

func (s *Service) assembleContext(ctx context.Context, st *pipeState) (*pipeState, error) {
	if st.Query.Task != contractx.TaskChatWithSearch {
		return st, nil
	}
	start := time.Now()

	st.Context = assemble.Build(st.Snippets, s.cfg.ContextLimit)

	outcome := debugx.OutcomeOK
	if st.Context.Truncated {
		outcome = "truncated"
	}
	s.report(ctx, "assemble_context", "assembler", start, outcome)
	return st, nil
}

func (s *Service) composeMessages(ctx context.Context, st *pipeState) (*pipeState, error) {
	if st.Query.Task != contractx.TaskChatWithSearch {
		return st, nil
	}

	system := st.Instruction
	if st.Context.Text != "" {
		system += "\n\nUse the following documents from the knowledge base when answering:\n\n" + st.Context.Text
	} else {
		system += "\n\nNo relevant documents were found in the knowledge base for this question. Answer from general knowledge and say so when specific data is missing."
	}

	st.Messages = []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(st.Query.Text),
	}
	return st, nil
}

func (s *Service) complete(ctx context.Context, st *pipeState) (*pipeState, error) {
	if st.Query.Task != contractx.TaskChatWithSearch {
		return st, nil
	}
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	out, err := s.completer.Complete(callCtx, st.Messages)
	if err != nil {
		// The caller gets a displayable answer either way.
		log.Warn().Err(err).Msg("completion failed, returning fallback answer")
		st.Text = apologyText
		st.Degraded = true
		s.report(ctx, "complete", "llm", start, debugx.OutcomeDegraded)
		return st, nil
	}

	st.Text = out
	s.report(ctx, "complete", "llm", start, debugx.OutcomeOK)
	return st, nil
}

func (s *Service) finalizeAnswer(ctx context.Context, st *pipeState) (contractx.Answer, error) {
	ans := contractx.Answer{
		Task:     st.Query.Task,
		Engine:   st.Query.Engine,
		Degraded: st.Degraded,
		Sources:  st.Snippets,
	}

	if st.Query.Task == contractx.TaskSearchOnly {
		ans.Text = formatSearchAnswer(st)
		return ans, nil
	}

	ans.Persona = st.Persona
	assembled := st.Context
	ans.Context = &assembled
	ans.Text = st.Text
	return ans, nil
}

func formatSearchAnswer(st *pipeState) string {
	if st.Degraded {
		return "Document search is temporarily unavailable. Please try again shortly."
	}
	if len(st.Snippets) == 0 {
		return fmt.Sprintf("No documents found for query: %q", st.Query.Text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for: %q\n\n", len(st.Snippets), st.Query.Text)
	for i, sn := range st.Snippets {
		label := sn.SourceID
		if label == "" {
			label = fmt.Sprintf("result %d", i+1)
		}
		content := strings.TrimSpace(sn.Content)
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&b, "%d. %s (score %.2f)\n   %s\n\n", i+1, label, sn.Score, content)
	}
	return strings.TrimSpace(b.String())
}
