// Package pipeline implements the two query→answer pipelines. The direct
// pipeline wires retrieval, context assembly, persona resolution, and
// completion by hand; the kernel pipeline resolves retrieval and persona
// selection through the plugin registry and only calls completion directly.
// Both run as compiled graphs of the same stage shape, report every stage to
// the debug recorder, and recover retrieval/completion failures into
// degraded answers instead of surfacing them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/kittipos/callroom/rag/assemble"
	contractx "github.com/kittipos/callroom/rag/contract"
	debugx "github.com/kittipos/callroom/rag/debug"
	pluginx "github.com/kittipos/callroom/rag/plugin"
	promptx "github.com/kittipos/callroom/rag/prompt"
)

// apologyText is the fixed user-safe reply when completion fails. The real
// failure goes to the debug recorder, never to the end user.
const apologyText = "I'm sorry, I couldn't generate a response right now. Please try again in a moment."

// Config carries the pipeline knobs. Zero values fall back to defaults.
type Config struct {
	ContextLimit int           `envconfig:"CONTEXT_LIMIT" split_words:"true" default:"4000"`
	ChatTopK     int           `envconfig:"CHAT_TOP_K" split_words:"true" default:"3"`
	SearchTopK   int           `envconfig:"SEARCH_TOP_K" split_words:"true" default:"5"`
	CallTimeout  time.Duration `envconfig:"CALL_TIMEOUT" split_words:"true" default:"30s"`
}

func (c Config) withDefaults() Config {
	if c.ContextLimit <= 0 {
		c.ContextLimit = assemble.DefaultLimit
	}
	if c.ChatTopK <= 0 {
		c.ChatTopK = 3
	}
	if c.SearchTopK <= 0 {
		c.SearchTopK = 5
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
	return c
}

// Service dispatches queries to the direct or kernel pipeline by engine.
type Service struct {
	searcher  contractx.Searcher
	completer contractx.Completer
	personas  *promptx.Provider
	registry  *pluginx.Registry
	recorder  debugx.Recorder
	cfg       Config

	directRunner compose.Runnable[contractx.Query, contractx.Answer]
	kernelRunner compose.Runnable[contractx.Query, contractx.Answer]
}

// New compiles both pipeline graphs over the given collaborators. The
// registry backs the kernel pipeline only; the direct pipeline never touches
// it.
func New(
	searcher contractx.Searcher,
	completer contractx.Completer,
	personas *promptx.Provider,
	registry *pluginx.Registry,
	recorder debugx.Recorder,
	cfg Config,
) (*Service, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if personas == nil {
		return nil, errors.New("persona provider is required")
	}
	if registry == nil {
		return nil, errors.New("plugin registry is required")
	}
	if recorder == nil {
		recorder = debugx.NopRecorder{}
	}

	s := &Service{
		searcher:  searcher,
		completer: completer,
		personas:  personas,
		registry:  registry,
		recorder:  recorder,
		cfg:       cfg.withDefaults(),
	}

	directRunner, err := s.compileGraph(context.Background(), "pipeline.direct", s.directStages())
	if err != nil {
		return nil, err
	}
	s.directRunner = directRunner

	kernelRunner, err := s.compileGraph(context.Background(), "pipeline.kernel", s.kernelStages())
	if err != nil {
		return nil, err
	}
	s.kernelRunner = kernelRunner

	return s, nil
}

// Run executes the pipeline selected by the query's engine. Mode mapping is
// a pure function of the query; unknown tasks and engines fail fast with
// ErrValidation instead of falling through to an undefined pipeline.
func (s *Service) Run(ctx context.Context, q contractx.Query) (contractx.Answer, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return contractx.Answer{}, fmt.Errorf("%w: query text is empty", contractx.ErrValidation)
	}

	switch q.Task {
	case contractx.TaskSearchOnly, contractx.TaskChatWithSearch:
	default:
		return contractx.Answer{}, fmt.Errorf("%w: unsupported task %q", contractx.ErrValidation, q.Task)
	}

	switch q.Engine {
	case contractx.EngineDirect:
		return s.directRunner.Invoke(ctx, q)
	case contractx.EngineKernel:
		return s.kernelRunner.Invoke(ctx, q)
	default:
		return contractx.Answer{}, fmt.Errorf("%w: unsupported engine %q", contractx.ErrValidation, q.Engine)
	}
}

// Registry exposes the plugin registry for startup wiring and status
// introspection.
func (s *Service) Registry() *pluginx.Registry {
	return s.registry
}
