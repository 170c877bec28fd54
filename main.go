package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/modelmux/modelmux/core/gateway"
	"github.com/modelmux/modelmux/core/triage"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/server"
	"github.com/modelmux/modelmux/providers/ai/anthropic"
	"github.com/modelmux/modelmux/providers/ai/gemini"
	"github.com/modelmux/modelmux/providers/ai/ollama"
	"github.com/modelmux/modelmux/providers/ai/openai"
	"github.com/modelmux/modelmux/providers/ai/workersai"
	"github.com/modelmux/modelmux/providers/cache"
	"github.com/modelmux/modelmux/providers/cache/inmemory"
	"github.com/modelmux/modelmux/providers/cache/sqlitecache"
	slogobs "github.com/modelmux/modelmux/providers/observability/slog"
)

func main() {
	configPath := flag.String("config", "modelmux.yaml", "path to the YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogobs.GetLogLevelFromEnv(),
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("modelmux exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := slogobs.New(logger)

	verdicts, closeVerdicts, err := openVerdictCache(cfg)
	if err != nil {
		return err
	}
	defer closeVerdicts()

	workersClient := workersai.NewClient()
	if cfg.Providers.WorkersAI.AccountID != "" {
		workersClient.WithAccountID(cfg.Providers.WorkersAI.AccountID)
	}
	if cfg.Providers.WorkersAI.APIToken != "" {
		workersClient.WithAPIToken(cfg.Providers.WorkersAI.APIToken)
	}
	if cfg.Providers.WorkersAI.BaseURL != "" {
		workersClient.WithBaseURL(cfg.Providers.WorkersAI.BaseURL)
	}

	classifier := triage.NewClassifier(workersClient, verdicts, cfg.Triage.Model, cfg.Triage.CacheTTL.Std())

	registry := workersai.DefaultRegistry()
	workersAdapter := workersai.New().
		WithClient(workersClient).
		WithRegistry(registry).
		WithTriager(classifier)

	openaiAdapter := openai.New()
	if cfg.Providers.OpenAI.APIKey != "" {
		openaiAdapter.WithAPIKey(cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.OpenAI.BaseURL != "" {
		openaiAdapter.WithBaseURL(cfg.Providers.OpenAI.BaseURL)
	}

	anthropicAdapter := anthropic.New()
	if cfg.Providers.Anthropic.APIKey != "" {
		anthropicAdapter.WithAPIKey(cfg.Providers.Anthropic.APIKey)
	}
	if cfg.Providers.Anthropic.BaseURL != "" {
		anthropicAdapter.WithBaseURL(cfg.Providers.Anthropic.BaseURL)
	}

	geminiAdapter := gemini.New()
	if cfg.Providers.Gemini.APIKey != "" {
		geminiAdapter.WithAPIKey(cfg.Providers.Gemini.APIKey)
	}
	if cfg.Providers.Gemini.BaseURL != "" {
		geminiAdapter.WithBaseURL(cfg.Providers.Gemini.BaseURL)
	}

	ollamaAdapter := ollama.New()
	if cfg.Providers.Ollama.BaseURL != "" {
		ollamaAdapter.WithBaseURL(cfg.Providers.Ollama.BaseURL)
	}

	dispatcher := gateway.New(gateway.Adapters{
		OpenAI:    openaiAdapter,
		Anthropic: anthropicAdapter,
		Gemini:    geminiAdapter,
		WorkersAI: workersAdapter,
		Ollama:    ollamaAdapter,
	}).WithObserver(observer)

	httpServer := server.New(dispatcher).
		WithAddr(cfg.Server.Addr).
		WithRegistry(registry).
		WithObserver(observer)

	return httpServer.Run(ctx)
}

// openVerdictCache picks the triage verdict store: sqlite when a path is
// configured, process memory otherwise.
func openVerdictCache(cfg config.Config) (cache.Store, func(), error) {
	if cfg.Cache.Path == "" {
		return inmemory.New(), func() {}, nil
	}

	store, err := sqlitecache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open verdict cache %q: %w", cfg.Cache.Path, err)
	}
	return store, func() { _ = store.Close() }, nil
}
