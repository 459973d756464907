package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/kittipos/callroom/api"
	configx "github.com/kittipos/callroom/pkg/config"
	_ "github.com/kittipos/callroom/pkg/logger/autoload"
	contractx "github.com/kittipos/callroom/rag/contract"
	debugx "github.com/kittipos/callroom/rag/debug"
	llmx "github.com/kittipos/callroom/rag/llm"
	"github.com/kittipos/callroom/rag/pipeline"
	pluginx "github.com/kittipos/callroom/rag/plugin"
	promptx "github.com/kittipos/callroom/rag/prompt"
	searchx "github.com/kittipos/callroom/rag/search"
)

type AppConfig struct {
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:"127.0.0.1:8080"`
	DefaultPersona string `envconfig:"DEFAULT_PERSONA" default:"analyst"`
	DebugEventsDSN string `envconfig:"DEBUG_EVENTS_DSN"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	remoteCfg := configx.MustNew[searchx.RemoteConfig]("SEARCH")
	localCfg := configx.MustNew[searchx.LocalConfig]("SEARCH")
	ragCfg := configx.MustNew[pipeline.Config]("RAG")

	searcher, searcherKind := buildSearcher(*remoteCfg, *localCfg)

	completer, err := llmx.NewClient(*llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize completion client")
	}

	personas := promptx.NewProvider(contractx.Persona(appCfg.DefaultPersona))

	registry := pluginx.NewRegistry()
	pluginx.RegisterSearch(registry, searcher, ragCfg.ChatTopK)
	pluginx.RegisterPersonas(registry, personas)

	recorder := buildRecorder(ctx, appCfg.DebugEventsDSN)

	svc, err := pipeline.New(searcher, completer, personas, registry, recorder, *ragCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile pipelines")
	}

	info := api.StatusInfo{
		SearcherKind:   searcherKind,
		Model:          llmCfg.Model,
		DefaultPersona: string(personas.Default()),
		ChatTopK:       ragCfg.ChatTopK,
		SearchTopK:     ragCfg.SearchTopK,
		ContextLimit:   ragCfg.ContextLimit,
	}

	srv := api.NewServer(svc, registry, info)
	if err := srv.Run(ctx, appCfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
}

// buildSearcher picks the document backend from the environment. A configured
// remote endpoint wins over a local index path.
func buildSearcher(remoteCfg searchx.RemoteConfig, localCfg searchx.LocalConfig) (contractx.Searcher, string) {
	if remoteCfg.Endpoint != "" {
		client, err := searchx.NewRemoteClient(remoteCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize remote search client")
		}
		return client, "remote"
	}
	if localCfg.Path != "" {
		idx, err := searchx.OpenLocalIndex(localCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open local search index")
		}
		return idx, "local"
	}
	log.Fatal().Msg("no search backend configured, set SEARCH_ENDPOINT or SEARCH_LOCAL_INDEX_PATH")
	return nil, ""
}

// buildRecorder always logs pipeline events and additionally persists them
// when a Postgres DSN is configured.
func buildRecorder(ctx context.Context, dsn string) debugx.Recorder {
	if dsn == "" {
		return debugx.LogRecorder{}
	}
	sink, err := debugx.NewBunRecorder(ctx, dsn)
	if err != nil {
		log.Warn().Err(err).Msg("event store unavailable, logging events only")
		return debugx.LogRecorder{}
	}
	return debugx.MultiRecorder{debugx.LogRecorder{}, sink}
}
