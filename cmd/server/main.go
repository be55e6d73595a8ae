package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"nugget/internal/adapter"
	"nugget/internal/analytics"
	"nugget/internal/config"
	"nugget/internal/conversation"
	"nugget/internal/executor"
	"nugget/internal/extractor"
	"nugget/internal/fileengine"
	"nugget/internal/infrastructure/api/rest"
	"nugget/internal/infrastructure/authstub"
	"nugget/internal/infrastructure/logger"
	"nugget/internal/infrastructure/observer"
	"nugget/internal/infrastructure/progress"
	"nugget/internal/llm"
	"nugget/internal/orchestrator"
	"nugget/internal/planner"
	"nugget/internal/registry"
	"nugget/internal/relation"
	"nugget/internal/semanticindex"
)

func main() {
	var (
		port       = flag.String("port", "", "server port (overrides config)")
		enableCORS = flag.Bool("cors", true, "enable CORS")
		useMemory  = flag.Bool("memory-store", false, "use the in-process conversation store instead of Postgres")
	)
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	zlog := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	zlog.Info().Str("port", cfg.Port).Msg("starting nugget analytics pipeline server")

	reg := registry.New()
	semIndex := semanticindex.Build(reg.AllMetrics(), reg.AllDimensions())

	var llmPort llm.Port
	if cfg.OpenAIAPIKey != "" {
		llmPort = llm.NewOpenAIPort(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout)
		zlog.Info().Str("model", cfg.OpenAIModel).Msg("using OpenAI LLM port")
	} else {
		llmPort = llm.NewFakePort()
		zlog.Warn().Msg("OPENAI_API_KEY not set, using fake LLM port")
	}

	var analyticsPort analytics.Port = analytics.NewFakePort()
	zlog.Warn().Msg("using fake analytics port; wire a real GA4/BigQuery port for production traffic")

	var store conversation.Store
	if *useMemory {
		store = conversation.NewMemoryStore()
		zlog.Info().Msg("using in-process conversation store")
	} else {
		bunStore := conversation.NewBunStore(cfg.DatabaseDSN)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		if err := bunStore.InitSchema(ctx); err != nil {
			zlog.Error().Err(err).Msg("failed to initialize conversation store schema")
			cancel()
			os.Exit(1)
		}
		cancel()
		store = bunStore
		zlog.Info().Msg("using Postgres-backed conversation store (bun)")
	}

	ext := extractor.New(reg, semIndex)
	rel := relation.New(llmPort)
	pln := planner.New(reg)
	exe := executor.New(analyticsPort)
	adp := adapter.New(reg)
	fileEngine := fileengine.New(llmPort, cfg.FilePageLimit)

	hub := progress.NewHub(zlog)
	go hub.Run()

	observers := observer.NewManager()
	observers.Add(observer.NewConsoleObserver(zlog))
	observers.Add(hub)

	orch := orchestrator.New(reg, ext, rel, pln, exe, adp, llmPort, store, observers, fileEngine)

	auth := authstub.NewValidator(cfg.JWTSecret)
	wsHandler := progress.NewHandler(hub, auth, zlog)
	srv := rest.NewServer(orch, wsHandler, auth, zlog, rest.ServerConfig{EnableCORS: *enableCORS})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited gracefully")
}
