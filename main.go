package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/serisow/autbot/agent"
	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/config"
	"github.com/serisow/autbot/db"
	"github.com/serisow/autbot/evaluation"
	"github.com/serisow/autbot/handlers"
	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/pipeline_type"
	"github.com/serisow/autbot/plugin_registry"
	"github.com/serisow/autbot/ratelimit"
	"github.com/serisow/autbot/server"
	"github.com/serisow/autbot/services/llm_service"
	"github.com/serisow/autbot/services/rag_service"
)

func main() {
	evalMode := flag.Bool("eval", false, "run the evaluation cases against the corpus and exit")
	evalCases := flag.String("eval-cases", "", "YAML file with evaluation cases (default: built-in cases)")
	flag.Parse()

	if err := run(*evalMode, *evalCases); err != nil {
		log.Fatal(err)
	}
}

func run(evalMode bool, evalCases string) error {
	cfg := config.Load()

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		JSON:   cfg.IsProduction(),
		LogDir: cfg.LogDir,
	})
	if err != nil {
		return fmt.Errorf("error setting up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := plugin_registry.NewPluginRegistry()
	registerPlugins(registry, cfg, logger)

	docs, err := rag_service.NewLoader(logger).Load(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to load documents", slog.String("data_dir", cfg.DataDir), slog.String("error", err.Error()))
		return err
	}

	a, release, agentErr := buildAgent(ctx, cfg, registry, docs, logger)
	defer release()
	if agentErr != nil {
		logger.Warn("Agent unavailable, serving in degraded mode", slog.String("error", agentErr.Error()))
	}

	if evalMode {
		return runEvaluation(ctx, a, agentErr, evalCases, logger)
	}

	limiter := ratelimit.New()
	limiter.StartCleanup(cfg.RateLimitCleanup, cfg.RateLimitRetention, func(removed int) {
		logger.Debug("Rate limiter cleanup", slog.Int("removed_keys", removed), slog.Int("active_keys", limiter.Keys()))
	})
	defer limiter.Stop()

	opts := handlers.Options{
		AgentErr:          agentErr,
		Limiter:           limiter,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Environment:       cfg.Environment,
		OpenAIConfigured:  cfg.OpenAIAPIKey != "",
	}
	if a != nil {
		opts.Agent = a
	}
	h := handlers.New(opts, logger)

	serverCfg := server.Config{
		Domains:         cfg.Domains,
		CertCacheDir:    cfg.CertCacheDir,
		HTTPPort:        cfg.HTTPPort,
		AllowedOrigins:  cfg.AllowedOrigins,
		IdleTimeout:     time.Minute,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    cfg.LLMTimeout + 15*time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	n := server.New(serverCfg, server.SetupRoutes(h), logger)

	logger.Info("Starting AutBot",
		slog.String("environment", cfg.Environment),
		slog.String("llm_provider", cfg.LLMProvider),
		slog.Bool("llm_available", a != nil),
		slog.Int("documents", len(docs)))

	if cfg.IsProduction() {
		return server.ServeProduction(ctx, serverCfg, n, logger)
	}
	return server.ServeDevelopment(ctx, serverCfg, n, logger)
}

func registerPlugins(registry *plugin_registry.PluginRegistry, cfg config.Config, logger *slog.Logger) {
	registry.RegisterLLMService("openai", llm_service.NewOpenAIService(logger))
	registry.RegisterLLMService("anthropic", llm_service.NewAnthropicService(logger))
	registry.RegisterLLMService("gemini", llm_service.NewGeminiService(logger))

	registry.RegisterEmbedder("openai", func() rag_service.Embedder {
		return rag_service.NewOpenAIEmbedder(cfg.EmbeddingAPIURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	})
	registry.RegisterEmbedder("tfidf", func() rag_service.Embedder {
		return rag_service.NewTFIDFEmbedder()
	})
}

// buildAgent assembles index, retriever and synthesizer. On failure the agent
// is nil and the error says why; the returned release func is never nil.
func buildAgent(ctx context.Context, cfg config.Config, registry *plugin_registry.PluginRegistry, docs []pipeline_type.Document, logger *slog.Logger) (*agent.Agent, func(), error) {
	release := func() {}

	if !cfg.LLMConfigured() {
		return nil, release, apperror.Configuration(fmt.Sprintf("no API key configured for LLM provider %q", cfg.LLMProvider))
	}
	llm, ok := registry.GetLLMService(cfg.LLMProvider)
	if !ok {
		return nil, release, apperror.Configuration(fmt.Sprintf("unknown LLM provider %q", cfg.LLMProvider))
	}

	embedder, err := registry.GetEmbedder(cfg.Embedder)
	if err != nil {
		return nil, release, apperror.Wrap(apperror.KindConfiguration, err, err.Error())
	}

	prompt, err := loadPrompt(cfg)
	if err != nil {
		return nil, release, apperror.Wrap(apperror.KindConfiguration, err, err.Error())
	}

	store, release, err := newVectorStore(ctx, cfg, logger)
	if err != nil {
		return nil, release, err
	}

	index, err := rag_service.BuildIndex(ctx, docs, rag_service.NewSentenceChunker(cfg.ChunkSentences, cfg.ChunkOverlap), embedder, store, logger)
	if err != nil {
		return nil, release, err
	}

	retriever := rag_service.NewWeightedRetriever(index, cfg.CandidateMultiplier, logger)
	synthesizer := rag_service.NewSynthesizer(llm, llm_service.ProviderConfig(cfg), prompt, logger)

	logger.Info("Agent ready",
		slog.String("embedder", embedder.Name()),
		slog.String("vector_store", cfg.VectorStore),
		slog.String("prompt_variant", prompt.Name),
		slog.Int("chunks", index.ChunkCount()))

	return agent.New(retriever, synthesizer, agent.Options{
		TopK:    cfg.RetrievalTopK,
		Timeout: cfg.LLMTimeout,
	}, logger), release, nil
}

func loadPrompt(cfg config.Config) (rag_service.PromptTemplate, error) {
	prompts, err := rag_service.LoadPrompts(cfg.PromptFile)
	if err != nil {
		return rag_service.PromptTemplate{}, err
	}
	return rag_service.SelectPrompt(prompts, cfg.PromptVariant)
}

func newVectorStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (rag_service.VectorStore, func(), error) {
	switch cfg.VectorStore {
	case "memory", "":
		return rag_service.NewMemoryStore(), func() {}, nil
	case "pgvector":
		pool, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultConnectOptions, logger)
		if err != nil {
			return nil, func() {}, apperror.Wrap(apperror.KindVectorStore, err, "failed to connect to the vector database")
		}
		return rag_service.NewPGVectorStore(pool, logger), pool.Close, nil
	default:
		return nil, func() {}, apperror.Configuration(fmt.Sprintf("unknown vector store %q", cfg.VectorStore))
	}
}

func runEvaluation(ctx context.Context, a *agent.Agent, agentErr error, casesPath string, logger *slog.Logger) error {
	if a == nil {
		return fmt.Errorf("cannot evaluate without an agent: %w", agentErr)
	}

	cases := evaluation.DefaultCases()
	if casesPath != "" {
		loaded, err := evaluation.LoadCases(casesPath)
		if err != nil {
			return err
		}
		cases = loaded
	}

	results := evaluation.Run(ctx, a, cases, logger)
	evaluation.Report(os.Stdout, results)
	return nil
}
