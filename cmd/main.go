package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"finbot/internal/chromemdb"
	"finbot/internal/config"
	"finbot/internal/db"
	"finbot/internal/embedding"
	"finbot/internal/helper"
	"finbot/internal/ingest"
	"finbot/internal/llm"
	"finbot/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	runIngest := flag.Bool("ingest", false, "Ingest documents instead of starting the interactive session")
	dir := flag.String("dir", "./data/raw", "Directory with documents to ingest")
	reset := flag.Bool("reset", false, "Drop previously stored documents before ingesting")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, *runIngest, *reset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening chunk store")
	}
	defer cleanup()

	embedder := embedding.New(&cfg.Embedding)

	if *runIngest {
		if err := ingest.Run(ctx, *dir, embedder, store, cfg); err != nil {
			log.Fatal().Err(err).Msg("Ingestion failed")
		}
		return
	}

	backend, err := llm.New(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation backend")
	}
	// the local backend holds a loaded llama model that must be freed
	if closer, ok := backend.(interface{ Close() }); ok {
		defer closer.Close()
	}

	// reranking costs one extra generation call per turn, only worth it for
	// backends that already make a network round-trip
	var reranker *rag.Reranker
	if cfg.LLM.Backend == config.BackendOpenAI || cfg.LLM.Backend == config.BackendHF {
		reranker = rag.NewReranker(backend)
	}

	session := rag.NewSession(embedder, store, backend, reranker, cfg, os.Stdin, os.Stdout)
	if err := session.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Session failed")
	}
}

func newStore(ctx context.Context, cfg *config.Config, initSchema, reset bool) (rag.ChunkStore, func(), error) {
	if cfg.Store.Backend == config.StoreChromem {
		if reset {
			log.Warn().Msg("-reset is only supported for the postgres store, ignoring")
		}
		if !cfg.Store.InMemory {
			if err := helper.CreateFolder(cfg.Store.Path); err != nil {
				return nil, nil, err
			}
		}
		store, err := chromemdb.NewStore(&cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	store, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	if initSchema {
		if reset {
			if err := store.Drop(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	return store, func() { store.Close() }, nil
}
